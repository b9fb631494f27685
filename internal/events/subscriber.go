// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

//go:build nats

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/nazca360/nazca360/internal/metrics"
)

// Subscriber consumes domain events from JetStream through a durable,
// queue-grouped Watermill subscriber. Multiple instances sharing the
// queue group load-balance; the durable consumer survives restarts.
type Subscriber struct {
	subscriber message.Subscriber
	opts       Options
	logger     watermill.LoggerAdapter
}

// NewSubscriber creates a durable JetStream subscriber bound to the
// pre-created event stream.
func NewSubscriber(opts Options, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(opts.MaxReconnects),
		natsgo.ReconnectWait(opts.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	// Bind to the existing stream: subscriptions use wildcard subjects
	// (e.g. "nazca.>"), which cannot name a stream, so AutoProvision
	// would fail.
	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(opts.MaxDeliver),
		natsgo.MaxAckPending(opts.MaxAckPending),
		natsgo.AckWait(opts.AckWaitTimeout),
		natsgo.DeliverNew(),
		natsgo.BindStream(opts.StreamName),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              opts.URL,
		QueueGroupPrefix: opts.QueueGroup,
		SubscribersCount: opts.SubscribersCount,
		AckWaitTimeout:   opts.AckWaitTimeout,
		CloseTimeout:     opts.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false,
			AckAsync:         false, // Synchronous acks for at-least-once
			SubscribeOptions: subOpts,
			DurablePrefix:    opts.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{
		subscriber: sub,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Run consumes events from the given topic until context cancellation,
// deserializing each message and dispatching it to the handler. Messages
// are acked on success and nacked for redelivery on error.
func (s *Subscriber) Run(ctx context.Context, topic string, handler EventHandler) error {
	messages, err := s.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.process(ctx, topic, msg, handler)
		}
	}
}

func (s *Subscriber) process(ctx context.Context, topic string, msg *message.Message, handler EventHandler) {
	start := time.Now()

	event, err := Deserialize(msg.Payload)
	if err != nil {
		// A payload that cannot be parsed will never succeed; ack it so
		// it does not poison the consumer.
		s.logger.Error("Dropping undecodable event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
			"topic":        topic,
		})
		msg.Ack()
		metrics.RecordEventConsumed(topic, time.Since(start), err)
		return
	}

	err = handler(ctx, event)
	metrics.RecordEventConsumed(topic, time.Since(start), err)
	if err != nil {
		s.logger.Error("Event handling failed", err, watermill.LogFields{
			"event_id": event.EventID,
			"type":     event.Type,
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

// Close gracefully shuts down the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}
