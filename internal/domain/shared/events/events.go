package events

import "time"

// DomainEvent is a fact recorded by an aggregate and later drained into the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Recorder collects events raised by an aggregate until the handler drains them.
type Recorder struct {
	pending []DomainEvent
}

func (r *Recorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *Recorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// Drain returns pending events and resets the recorder.
func (r *Recorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
