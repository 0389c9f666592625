package ccrecorder

import (
	"math"

	"github.com/SpotlightKid/midiomatic/pkg/midi"
)

// State of the playback scheduler.
type State uint8

const (
	Idle State = iota
	Sending
)

func (s State) String() string {
	if s == Sending {
		return "Sending"
	}
	return "Idle"
}

// AllChannels is the send filter value that matches every channel.
const AllChannels = -1

// IntervalFrames converts a send interval in milliseconds to frames at the
// given sample rate. The result is at least one frame.
func IntervalFrames(sampleRate float64, ms int) int64 {
	frames := int64(math.Round(sampleRate / 1000 * float64(ms)))
	if frames < 1 {
		return 1
	}
	return frames
}

// Scheduler replays a Table as paced Control Change events. A scan visits
// every cell once in channel-major order and may span many blocks. The
// clock only advances when an event is emitted.
type Scheduler struct {
	state    State
	ch, cc   int
	clock    int64 // next due frame relative to the current block
	filter   int   // AllChannels or 0-15
	interval int64

	// Scratch event handed to the writer. Writers copy it.
	ev midi.Event
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return s.state
}

// Sending reports whether a scan is in progress.
func (s *Scheduler) Sending() bool {
	return s.state == Sending
}

// Cursor returns the next cell to be inspected.
func (s *Scheduler) Cursor() (ch, cc int) {
	return s.ch, s.cc
}

// Clock returns the frame at which the next event is due in the coming
// block.
func (s *Scheduler) Clock() int64 {
	return s.clock
}

// Matches reports whether a channel passes the filter latched at start.
func (s *Scheduler) Matches(ch int) bool {
	return s.filter == AllChannels || s.filter == ch
}

// Start begins a scan at (0, 0) with the given channel filter and interval.
// Both stay fixed for the scan; only SetInterval changes a running one.
// It returns false and changes nothing when a scan is already running.
func (s *Scheduler) Start(filter int, interval int64) bool {
	if s.state == Sending {
		return false
	}
	s.state = Sending
	s.ch, s.cc = 0, 0
	s.clock = 0
	s.filter = filter
	s.interval = max(interval, 1)
	return true
}

// SetInterval replaces the interval of a running scan.
func (s *Scheduler) SetInterval(interval int64) {
	s.interval = max(interval, 1)
}

// Reset stops any scan.
func (s *Scheduler) Reset() {
	s.state = Idle
	s.ch, s.cc = 0, 0
	s.clock = 0
}

// Run emits the events due within a block of frames and returns how many
// were written. When out refuses an event the block ends there and the
// same cell is retried at frame 0 of the next block.
func (s *Scheduler) Run(t *Table, frames uint32, out midi.Writer) int {
	if s.state != Sending {
		return 0
	}

	end := int64(frames)
	emitted := 0
	for s.clock < end {
		if v := t[s.ch][s.cc]; v != Sentinel && s.Matches(s.ch) {
			s.ev = midi.NewControlChange(uint32(s.clock), uint8(s.ch), uint8(s.cc), v)
			if out == nil || !out.WriteEvent(&s.ev) {
				break
			}
			emitted++
			s.clock += s.interval
		}
		if !s.advance() {
			s.Reset()
			return emitted
		}
	}

	s.clock = max(s.clock-end, 0)
	return emitted
}

// advance moves the cursor to the next cell and reports false after the
// last one.
func (s *Scheduler) advance() bool {
	s.cc++
	if s.cc < NumControllers {
		return true
	}
	s.cc = 0
	s.ch++
	return s.ch < NumChannels
}
