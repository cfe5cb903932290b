// Package events publishes work-request lifecycle events to NATS
// JetStream for downstream consumers (notifications, reporting).
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	platformevents "github.com/founddesk/be-lf-workrequests/internal/platform/events"
)

// Stream and subject space owned by this service.
const (
	Stream        = "LF_WORKREQUESTS"
	subjectPrefix = "lf.workrequests"
)

// Subjects returns the subject space to provision on the stream.
func Subjects() []string {
	return []string{subjectPrefix + ".>"}
}

// Publisher publishes work-request events to NATS JetStream.
//
// Subject convention: lf.workrequests.<event>
// Events: created, routed, approver_selected, step_approved, approved,
//         rejected, cancelled, sla_overdue, sla_warning, workloads_reset
//
// All publish operations are non-fatal — errors are logged but never
// propagated, so event delivery failures never interrupt request
// lifecycle operations.
type Publisher struct {
	conn *platformevents.Conn
	log  zerolog.Logger
}

// NewPublisher creates a publisher over the given connection. A nil
// connection yields a publisher that silently drops events, so the
// service runs without NATS in development.
func NewPublisher(conn *platformevents.Conn, log zerolog.Logger) *Publisher {
	return &Publisher{conn: conn, log: log}
}

// Publish sends one event. The payload is marshalled to JSON.
func (p *Publisher) Publish(ctx context.Context, event string, payload interface{}) {
	if p.conn == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Warn().Err(err).Str("event", event).Msg("events: failed to marshal payload")
		return
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, event)
	if err := p.conn.Publish(ctx, subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Msg("events: failed to publish (non-fatal)")
		return
	}

	p.log.Debug().Str("subject", subject).Msg("events: published")
}
