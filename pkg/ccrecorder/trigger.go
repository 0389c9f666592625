package ccrecorder

import "github.com/SpotlightKid/midiomatic/pkg/framework/process"

// TransportMode selects whether a host transport start triggers a send.
type TransportMode uint8

const (
	TransportDisabled TransportMode = iota
	TransportAlways
	// TransportAtZero only triggers when playback starts at position zero.
	TransportAtZero
)

// ClampTransportMode converts a parameter value to a TransportMode.
func ClampTransportMode(v int) TransportMode {
	return TransportMode(min(max(v, int(TransportDisabled)), int(TransportAtZero)))
}

func (m TransportMode) String() string {
	switch m {
	case TransportAlways:
		return "Always"
	case TransportAtZero:
		return "At Zero"
	default:
		return "Disabled"
	}
}

// Trigger combines the start sources of a send into one request per block.
// All sources are edge triggered.
type Trigger struct {
	mode       TransportMode
	wasPlaying bool
	lastSend   bool
	lastClear  bool

	// A Program Change seen while routing a block starts the send on the
	// next block.
	programSeen    bool
	programPending bool
}

// SetMode sets the transport policy.
func (t *Trigger) SetMode(mode TransportMode) {
	t.mode = mode
}

// Mode returns the transport policy.
func (t *Trigger) Mode() TransportMode {
	return t.mode
}

// ClearEdge reports a rising edge of the clear parameter.
func (t *Trigger) ClearEdge(on bool) bool {
	edge := on && !t.lastClear
	t.lastClear = on
	return edge
}

// QueueProgramChange records a matching Program Change in the current block.
func (t *Trigger) QueueProgramChange() {
	t.programSeen = true
}

// Aggregate evaluates all sources once per block, after routing, and
// reports whether a send should start.
func (t *Trigger) Aggregate(send bool, transport process.Transport) bool {
	start := send && !t.lastSend
	t.lastSend = send

	if transport.Playing && !t.wasPlaying {
		switch t.mode {
		case TransportAlways:
			start = true
		case TransportAtZero:
			start = start || transport.AtZero()
		}
	}
	t.wasPlaying = transport.Playing

	if t.programPending {
		start = true
	}
	// A Program Change seen in a block that already starts collapses into
	// that start.
	t.programPending = t.programSeen && !start
	t.programSeen = false

	return start
}

// Pending reports whether a Program Change start is queued for a later
// block.
func (t *Trigger) Pending() bool {
	return t.programSeen || t.programPending
}

// Reset drops queued Program Change requests. Edge state is kept so a
// held parameter or running transport does not retrigger.
func (t *Trigger) Reset() {
	t.programSeen = false
	t.programPending = false
}
