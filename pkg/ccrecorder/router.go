package ccrecorder

import "github.com/SpotlightKid/midiomatic/pkg/midi"

// ProgramFilterDisabled is the Program Change trigger channel value that
// turns the trigger off. 0 matches any channel and 1-16 a single one.
const ProgramFilterDisabled = 17

// Stats counts routing decisions since the last reset.
type Stats struct {
	Forwarded  uint64
	Suppressed uint64
	Captured   uint64
	// Dropped counts forwards the output refused.
	Dropped         uint64
	ProgramTriggers uint64
	Emitted         uint64
}

// Router decides for each incoming event whether it is captured, forwarded
// or suppressed.
type Router struct {
	table   *Table
	sched   *Scheduler
	trigger *Trigger

	record    bool
	pcChannel int
	pcProgram int

	stats Stats
}

// NewRouter creates a router writing captures to table and consulting sched
// for suppression.
func NewRouter(table *Table, sched *Scheduler, trigger *Trigger) *Router {
	return &Router{
		table:     table,
		sched:     sched,
		trigger:   trigger,
		pcChannel: ProgramFilterDisabled,
	}
}

// Configure sets the per-block options. pcChannel is 0 for any channel,
// 1-16 for a single channel and ProgramFilterDisabled to disable.
func (r *Router) Configure(record bool, pcChannel, pcProgram int) {
	r.record = record
	r.pcChannel = pcChannel
	r.pcProgram = pcProgram
}

// Route processes the events of one block in order.
func (r *Router) Route(events []midi.Event, out midi.Writer) {
	for i := range events {
		e := &events[i]
		msg := midi.Decode(e)

		switch msg.Type {
		case midi.EventTypeControlChange:
			ch := int(msg.CC.Channel)
			sending := r.sched.Sending()
			if r.record && !sending {
				r.table.Set(ch, int(msg.CC.Controller), msg.CC.Value)
				r.stats.Captured++
			}
			if sending && r.sched.Matches(ch) {
				r.stats.Suppressed++
				continue
			}
		case midi.EventTypeProgramChange:
			if r.programMatches(msg.PC) {
				r.trigger.QueueProgramChange()
				r.stats.ProgramTriggers++
			}
		}

		r.forward(e, out)
	}
}

func (r *Router) programMatches(pc midi.ProgramChange) bool {
	if r.pcChannel < 0 || r.pcChannel >= ProgramFilterDisabled {
		return false
	}
	if r.pcChannel != 0 && r.pcChannel-1 != int(pc.Channel) {
		return false
	}
	return int(pc.Program) == r.pcProgram
}

func (r *Router) forward(e *midi.Event, out midi.Writer) {
	if out != nil && out.WriteEvent(e) {
		r.stats.Forwarded++
		return
	}
	r.stats.Dropped++
}

// Stats returns the routing counters.
func (r *Router) Stats() Stats {
	return r.stats
}

// ResetStats zeroes the routing counters.
func (r *Router) ResetStats() {
	r.stats = Stats{}
}
