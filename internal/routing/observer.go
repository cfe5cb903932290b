package routing

// SelectionEvent describes one completed approver selection.
type SelectionEvent struct {
	RequestID    string   `json:"request_id"`
	ApproverID   string   `json:"approver_id"`
	ApproverName string   `json:"approver_name"`
	Role         Role     `json:"role"`
	Priority     Priority `json:"priority"`
	Workload     int      `json:"workload"` // after selection
}

// Observer receives selection outcomes. Observers run synchronously on
// the routing path and must not block.
type Observer interface {
	ObserveSelection(event SelectionEvent)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) ObserveSelection(SelectionEvent) {}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(SelectionEvent)

func (f ObserverFunc) ObserveSelection(event SelectionEvent) { f(event) }

// MultiObserver fans each event out to every member in order.
type MultiObserver []Observer

func (m MultiObserver) ObserveSelection(event SelectionEvent) {
	for _, o := range m {
		o.ObserveSelection(event)
	}
}
