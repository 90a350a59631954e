// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/criticus/internal/logging"
	"github.com/tomtom215/criticus/internal/metrics"
)

// DirtyMarker receives the user ids whose ratings changed. Implemented
// by the similarity refresher.
type DirtyMarker interface {
	MarkDirty(userID int64)
}

// SubscriberStats is a point-in-time snapshot of subscriber counters.
type SubscriberStats struct {
	Received    int64
	Handled     int64
	ParseErrors int64
}

// Subscriber consumes rating-change events and marks the affected users
// dirty for the next incremental similarity refresh. It runs as one
// supervised service.
type Subscriber struct {
	bus    *Bus
	marker DirtyMarker

	received    atomic.Int64
	handled     atomic.Int64
	parseErrors atomic.Int64
}

// NewSubscriber creates a subscriber bound to the bus.
func NewSubscriber(bus *Bus, marker DirtyMarker) *Subscriber {
	return &Subscriber{bus: bus, marker: marker}
}

// Serve consumes until ctx is canceled. Implements suture.Service.
func (s *Subscriber) Serve(ctx context.Context) error {
	messages, err := s.bus.Subscribe(ctx, TopicRatingsChanged)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicRatingsChanged, err)
	}

	logging.Info().
		Str("topic", TopicRatingsChanged).
		Msg("Rating event subscriber started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handle(msg)
			msg.Ack()
		}
	}
}

// String identifies the subscriber in supervisor logs.
func (s *Subscriber) String() string {
	return "rating-event-subscriber"
}

// handle processes one message. Unparseable payloads are dropped and
// counted; there is nothing to retry on malformed JSON.
func (s *Subscriber) handle(msg *message.Message) {
	s.received.Add(1)

	var ev RatingChanged
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		s.parseErrors.Add(1)
		metrics.EventsHandled.WithLabelValues(TopicRatingsChanged, "error").Inc()
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping unparseable rating event")
		return
	}
	if err := ev.Validate(); err != nil {
		s.parseErrors.Add(1)
		metrics.EventsHandled.WithLabelValues(TopicRatingsChanged, "error").Inc()
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping invalid rating event")
		return
	}

	s.marker.MarkDirty(ev.UserID)
	s.handled.Add(1)
	metrics.EventsHandled.WithLabelValues(TopicRatingsChanged, "ok").Inc()

	logging.Debug().
		Int64("user_id", ev.UserID).
		Int64("item_id", ev.ItemID).
		Str("event_id", ev.EventID).
		Msg("Rating change marked for similarity refresh")
}

// Stats returns a snapshot of the subscriber counters.
func (s *Subscriber) Stats() SubscriberStats {
	return SubscriberStats{
		Received:    s.received.Load(),
		Handled:     s.handled.Load(),
		ParseErrors: s.parseErrors.Load(),
	}
}
