// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
)

// Bus is the in-process pub/sub for rating-change events. One instance
// serves both ends; messages never leave the process.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

// NewBus creates the bus. The output buffer absorbs rating-write bursts
// so publishing never blocks the API handler on a slow subscriber.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, NewLoggerAdapter(logging.Logger())),
	}
}

// PublishRatingChanged serializes and publishes one event.
func (b *Bus) PublishRatingChanged(ctx context.Context, ev *RatingChanged) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal rating event: %w", err)
	}

	msg := message.NewMessage(ev.EventID, payload)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(TopicRatingsChanged, msg); err != nil {
		return fmt.Errorf("publish rating event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(TopicRatingsChanged).Inc()
	return nil
}

// Subscribe returns a message channel for the topic. The channel closes
// when ctx is canceled or the bus closes.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down. Subsequent publishes fail.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}
