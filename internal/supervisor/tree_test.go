// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree, err := NewTree(quietLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewTree(quietLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		if tree.config.FailureThreshold != 5.0 {
			t.Errorf("expected default FailureThreshold 5.0, got %f", tree.config.FailureThreshold)
		}
		if tree.config.FailureDecay != 30.0 {
			t.Errorf("expected default FailureDecay 30.0, got %f", tree.config.FailureDecay)
		}
		if tree.config.FailureBackoff != 15*time.Second {
			t.Errorf("expected default FailureBackoff 15s, got %v", tree.config.FailureBackoff)
		}
		if tree.config.ShutdownTimeout != 10*time.Second {
			t.Errorf("expected default ShutdownTimeout 10s, got %v", tree.config.ShutdownTimeout)
		}
	})

	t.Run("default config matches suture defaults", func(t *testing.T) {
		cfg := DefaultTreeConfig()
		if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
			t.Errorf("unexpected failure params: %+v", cfg)
		}
		if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
			t.Errorf("unexpected timing params: %+v", cfg)
		}
	})
}

func TestTreeLifecycle(t *testing.T) {
	t.Run("tree starts and stops gracefully", func(t *testing.T) {
		tree, err := NewTree(quietLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   100 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		// One mock per layer
		tree.AddEventService(NewMockService("mock-subscriber"))
		tree.AddJobService(NewMockService("mock-scheduler"))
		tree.AddAPIService(NewMockService("mock-http"))

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- tree.Serve(ctx)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down in time")
		}
	})

	t.Run("ServeBackground returns channel", func(t *testing.T) {
		tree, _ := NewTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(time.Second):
			t.Error("did not receive from error channel")
		}
	})
}

func TestTreeServiceManagement(t *testing.T) {
	layers := []struct {
		name string
		add  func(*Tree, *MockService)
	}{
		{"events", func(tr *Tree, svc *MockService) { tr.AddEventService(svc) }},
		{"jobs", func(tr *Tree, svc *MockService) { tr.AddJobService(svc) }},
		{"api", func(tr *Tree, svc *MockService) { tr.AddAPIService(svc) }},
	}

	for _, layer := range layers {
		t.Run("services in "+layer.name+" layer are started", func(t *testing.T) {
			tree, _ := NewTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

			svc := NewMockService(layer.name + "-service")
			layer.add(tree, svc)

			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			go tree.Serve(ctx)
			time.Sleep(100 * time.Millisecond)

			if svc.StartCount() < 1 {
				t.Errorf("%s service was not started", layer.name)
			}
		})
	}

	// Note: Remove/RemoveAndWait only work for services added directly to
	// the root. Tokens from the layer Add methods belong to the child
	// supervisors; this is how suture's token design works.
}

func TestTreeFailureHandling(t *testing.T) {
	t.Run("failing service in one layer is restarted", func(t *testing.T) {
		tree, _ := NewTree(quietLogger(), TreeConfig{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})

		failingSvc := NewMockService("failing")
		failingSvc.SetFailCount(2) // Fail twice, then settle

		stableSvc := NewMockService("stable")

		tree.AddJobService(failingSvc)
		tree.AddAPIService(stableSvc)

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		go tree.Serve(ctx)
		time.Sleep(300 * time.Millisecond)

		if failingSvc.StartCount() < 3 {
			t.Errorf("failing service should have been restarted, start count: %d", failingSvc.StartCount())
		}
		if stableSvc.StartCount() != 1 {
			t.Errorf("stable service should have started exactly once, got: %d", stableSvc.StartCount())
		}
	})

	t.Run("failure in one layer does not restart another", func(t *testing.T) {
		tree, _ := NewTree(quietLogger(), TreeConfig{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})

		crashing := NewMockService("crashing-subscriber")
		crashing.SetFailCount(3)
		api := NewMockService("steady-api")

		tree.AddEventService(crashing)
		tree.AddAPIService(api)

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		go tree.Serve(ctx)
		time.Sleep(300 * time.Millisecond)

		if api.StartCount() != 1 {
			t.Errorf("api service should be untouched by subscriber crashes, start count: %d", api.StartCount())
		}
	})
}

func TestTreeUnstoppedServiceReport(t *testing.T) {
	tree, _ := NewTree(quietLogger(), TreeConfig{ShutdownTimeout: 100 * time.Millisecond})

	tree.AddAPIService(NewMockService("well-behaved"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport failed: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("expected no unstopped services, got %d", len(report))
	}
}
