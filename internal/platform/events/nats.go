// Package events manages the NATS JetStream connection shared by all
// publishers in the service.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Conn is a NATS connection with a JetStream context and its stream
// already provisioned.
type Conn struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

// Connect dials NATS, obtains a JetStream context and ensures the named
// stream exists with the given subject space.
func Connect(url, stream string, subjects []string) (*Conn, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(stream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			nc.Close()
			return nil, fmt.Errorf("look up stream %s: %w", stream, err)
		}
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  subjects,
			Retention: nats.LimitsPolicy,
		}); err != nil {
			nc.Close()
			return nil, fmt.Errorf("create stream %s: %w", stream, err)
		}
	}

	return &Conn{nc: nc, js: js}, nil
}

// Publish sends data to a subject through JetStream.
func (c *Conn) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := c.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// Close drains the connection, flushing buffered publishes.
func (c *Conn) Close() {
	if c.nc != nil {
		_ = c.nc.Drain()
	}
}
