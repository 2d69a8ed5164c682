// Package events publishes benchmark run progress to interested listeners,
// keyed by instance name.
package events

import "sync"

// Event types emitted by the orchestrator.
const (
	RunStarted      = "run.started"
	SolverSucceeded = "solver.succeeded"
	SolverFailed    = "solver.failed"
	RunCompleted    = "run.completed"
)

// Event is one progress notification for a benchmark run.
type Event struct {
	Type     string         `json:"type"`
	Instance string         `json:"instance"`
	Data     map[string]any `json:"data,omitempty"`
}

// Broker fans events out to subscribers of an instance name.
type Broker interface {
	Subscribe(instance string) chan Event
	Unsubscribe(instance string, ch chan Event)
	Publish(instance string, evt Event)
}

// MemoryBroker is the default in-process broker.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewMemoryBroker returns an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *MemoryBroker) Subscribe(instance string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[instance] == nil {
		b.subs[instance] = map[chan Event]struct{}{}
	}
	b.subs[instance][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *MemoryBroker) Unsubscribe(instance string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[instance]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, instance)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish delivers the event to current subscribers, dropping it for any
// subscriber whose buffer is full rather than blocking a benchmark run.
func (b *MemoryBroker) Publish(instance string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[instance] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
