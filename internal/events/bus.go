// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

// Package events provides an in-process domain event bus built on
// Watermill's gochannel pub/sub. Handlers publish marketplace events
// (project created, developer verified) and the bus runs a consumer that
// records them in logs and metrics. Publishing is fire-and-forget: a
// slow consumer never blocks the request path.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/novadom/novadom/internal/logging"
	"github.com/novadom/novadom/internal/metrics"
)

// Topics carried by the bus.
const (
	TopicProjectCreated    = "project.created"
	TopicDeveloperVerified = "developer.verified"
)

// ProjectCreated is emitted when a developer publishes a new listing.
type ProjectCreated struct {
	ProjectID   int64  `json:"project_id"`
	DeveloperID int64  `json:"developer_id"`
	City        string `json:"city"`
	Title       string `json:"title"`
}

// DeveloperVerified is emitted on an admin verification decision.
type DeveloperVerified struct {
	DeveloperID int64  `json:"developer_id"`
	CompanyName string `json:"company_name"`
	Decision    string `json:"decision"`
}

// Publisher is the subset of the bus used by HTTP handlers.
type Publisher interface {
	PublishProjectCreated(ctx context.Context, ev ProjectCreated) error
	PublishDeveloperVerified(ctx context.Context, ev DeveloperVerified) error
}

// Bus is an in-process event bus.
type Bus struct {
	channel *gochannel.GoChannel
}

// NewBus creates the bus with a buffered output channel.
func NewBus() *Bus {
	return &Bus{
		channel: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, newWatermillLogger()),
	}
}

// PublishProjectCreated emits a project.created event.
func (b *Bus) PublishProjectCreated(ctx context.Context, ev ProjectCreated) error {
	return b.publish(TopicProjectCreated, ev)
}

// PublishDeveloperVerified emits a developer.verified event.
func (b *Bus) PublishDeveloperVerified(ctx context.Context, ev DeveloperVerified) error {
	return b.publish(TopicDeveloperVerified, ev)
}

func (b *Bus) publish(topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.channel.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}

	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// Serve consumes all topics until the context is cancelled, logging each
// event and counting it in metrics. Implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	projectMsgs, err := b.channel.Subscribe(ctx, TopicProjectCreated)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicProjectCreated, err)
	}
	developerMsgs, err := b.channel.Subscribe(ctx, TopicDeveloperVerified)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicDeveloperVerified, err)
	}

	log := logging.WithComponent("events")
	log.Info().Msg("Event bus consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-projectMsgs:
			if !ok {
				return nil
			}
			b.consume(log, TopicProjectCreated, msg)
		case msg, ok := <-developerMsgs:
			if !ok {
				return nil
			}
			b.consume(log, TopicDeveloperVerified, msg)
		}
	}
}

func (b *Bus) consume(log zerolog.Logger, topic string, msg *message.Message) {
	log.Info().
		Str("topic", topic).
		Str("message_id", msg.UUID).
		RawJSON("payload", msg.Payload).
		Msg("Domain event")
	metrics.EventsConsumed.WithLabelValues(topic).Inc()
	msg.Ack()
}

// Close shuts down the underlying channel, terminating subscribers.
func (b *Bus) Close() error {
	return b.channel.Close()
}

// watermillLogger bridges Watermill's logging interface to zerolog.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) event(msg string, err error, fields watermill.LogFields, level string) {
	log := logging.WithComponent("watermill")
	var ev = log.Debug()
	switch level {
	case "error":
		ev = log.Error()
	case "info":
		ev = log.Debug() // watermill info is noisy, keep at debug
	}
	if err != nil {
		ev = ev.Err(err)
	}
	for k, v := range l.fields {
		ev = ev.Interface(k, v)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(msg, err, fields, "error")
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(msg, nil, fields, "info")
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(msg, nil, fields, "debug")
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(msg, nil, fields, "debug")
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &watermillLogger{fields: merged}
}
