package events

import (
	"context"

	"github.com/founddesk/be-lf-workrequests/internal/routing"
)

// SelectionObserver adapts the engine's Observer hook to the event
// publisher: every completed approver selection becomes an
// approver_selected event.
type SelectionObserver struct {
	publisher *Publisher
}

// NewSelectionObserver creates the adapter.
func NewSelectionObserver(publisher *Publisher) *SelectionObserver {
	return &SelectionObserver{publisher: publisher}
}

// ObserveSelection publishes the selection. Runs synchronously on the
// routing path; the publisher never blocks on delivery failures.
func (o *SelectionObserver) ObserveSelection(event routing.SelectionEvent) {
	o.publisher.Publish(context.Background(), "approver_selected", event)
}
