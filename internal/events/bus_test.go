// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package events

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/novadom/novadom/internal/metrics"
)

func TestBusPublishAndConsume(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Serve(ctx)
	}()

	// Give the consumer a moment to subscribe.
	time.Sleep(50 * time.Millisecond)

	before := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(TopicProjectCreated))

	err := bus.PublishProjectCreated(ctx, ProjectCreated{
		ProjectID:   1,
		DeveloperID: 2,
		City:        "Sofia",
		Title:       "Vitosha View",
	})
	if err != nil {
		t.Fatalf("PublishProjectCreated() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(TopicProjectCreated)) > before {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(TopicProjectCreated)); got <= before {
		t.Fatal("event was not consumed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func TestBusPublishDeveloperVerified(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicDeveloperVerified))

	err := bus.PublishDeveloperVerified(context.Background(), DeveloperVerified{
		DeveloperID: 9,
		CompanyName: "BuildCo",
		Decision:    "verified",
	})
	if err != nil {
		t.Fatalf("PublishDeveloperVerified() error: %v", err)
	}

	after := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicDeveloperVerified))
	if after != before+1 {
		t.Errorf("published counter = %v, want %v", after, before+1)
	}
}
