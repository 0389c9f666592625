package midi

// Writer accepts output events in emission order. WriteEvent returns false
// when there is no room left for the event.
type Writer interface {
	WriteEvent(e *Event) bool
}

// EventQueue is a fixed-capacity event buffer. All storage is allocated up
// front so it can be used as an output sink from the audio thread.
type EventQueue struct {
	events []Event
	limit  int
}

// NewEventQueue creates a queue holding at most capacity events.
func NewEventQueue(capacity int) *EventQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &EventQueue{
		events: make([]Event, 0, capacity),
		limit:  capacity,
	}
}

// WriteEvent implements Writer.
func (q *EventQueue) WriteEvent(e *Event) bool {
	return q.Add(*e)
}

// Add appends an event, returning false if the queue is full.
func (q *EventQueue) Add(event Event) bool {
	if len(q.events) >= q.limit {
		return false
	}
	q.events = append(q.events, event)
	return true
}

// Events returns the queued events. The slice is only valid until the next
// call to Clear.
func (q *EventQueue) Events() []Event {
	return q.events
}

func (q *EventQueue) Len() int {
	return len(q.events)
}

func (q *EventQueue) Cap() int {
	return q.limit
}

// SetCapacity limits the number of accepted events without reallocating.
// The limit cannot exceed the capacity given to NewEventQueue.
func (q *EventQueue) SetCapacity(n int) {
	if n < 0 {
		n = 0
	}
	if n > cap(q.events) {
		n = cap(q.events)
	}
	q.limit = n
}

func (q *EventQueue) Clear() {
	q.events = q.events[:0]
}

func (q *EventQueue) IsEmpty() bool {
	return len(q.events) == 0
}

// EventProcessor receives events one at a time.
type EventProcessor interface {
	ProcessEvent(event *Event)
}

// ProcessEvents passes every queued event with a frame in
// [startFrame, endFrame) to processor.
func (q *EventQueue) ProcessEvents(processor EventProcessor, startFrame, endFrame uint32) {
	for i := range q.events {
		if f := q.events[i].Frame; f >= startFrame && f < endFrame {
			processor.ProcessEvent(&q.events[i])
		}
	}
}
