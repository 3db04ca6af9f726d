package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
)

// Subscriber consumes completed assessments from JetStream (archiver side).
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeAssessments delivers every completed assessment, regardless of
// source, to the handler. Messages are acked only after the handler succeeds,
// so a failed archive insert is redelivered (up to 3 attempts).
func (s *Subscriber) SubscribeAssessments(ctx context.Context, handler func(ctx context.Context, a *domain.Assessment) error) error {
	sub, err := s.js.Subscribe("flood.assessment.>", func(msg *nats.Msg) {
		var a domain.Assessment
		if err := json.Unmarshal(msg.Data, &a); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &a); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("assessment-archiver"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
