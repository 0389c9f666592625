package ccrecorder

import (
	"testing"

	"github.com/SpotlightKid/midiomatic/pkg/midi"
)

type routerFixture struct {
	table   *Table
	sched   *Scheduler
	trigger *Trigger
	router  *Router
	out     *midi.EventQueue
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		table:   NewTable(),
		sched:   &Scheduler{},
		trigger: &Trigger{},
		out:     midi.NewEventQueue(32),
	}
	f.router = NewRouter(f.table, f.sched, f.trigger)
	return f
}

// startSending puts the scheduler into a long running scan.
func (f *routerFixture) startSending(filter int) {
	f.table.Set(15, 127, 1)
	f.sched.Start(filter, 1)
}

func programChange(frame uint32, ch, prog uint8) midi.Event {
	return midi.Event{Frame: frame, Size: 2, Data: [4]byte{0xC0 | ch, prog}}
}

func TestRouterCapture(t *testing.T) {
	f := newRouterFixture()
	f.router.Configure(true, ProgramFilterDisabled, 0)

	f.router.Route([]midi.Event{
		midi.NewControlChange(0, 0, 1, 64),
		midi.NewControlChange(5, 9, 74, 12),
	}, f.out)

	if v := f.table.Read(0, 1); v != 64 {
		t.Errorf("Expected 64 captured, got %d", v)
	}
	if v := f.table.Read(9, 74); v != 12 {
		t.Errorf("Expected 12 captured, got %d", v)
	}
	if f.out.Len() != 2 {
		t.Errorf("Captured events should be forwarded, got %d", f.out.Len())
	}

	t.Run("RecordDisabled", func(t *testing.T) {
		f.router.Configure(false, ProgramFilterDisabled, 0)
		f.router.Route([]midi.Event{midi.NewControlChange(0, 0, 1, 1)}, f.out)
		if v := f.table.Read(0, 1); v != 64 {
			t.Errorf("Expected value unchanged, got %d", v)
		}
	})

	t.Run("NoCaptureWhileSending", func(t *testing.T) {
		f.router.Configure(true, ProgramFilterDisabled, 0)
		f.startSending(3)
		f.router.Route([]midi.Event{midi.NewControlChange(0, 0, 1, 2)}, f.out)
		if v := f.table.Read(0, 1); v != 64 {
			t.Errorf("Expected value unchanged while sending, got %d", v)
		}
	})
}

func TestRouterSuppression(t *testing.T) {
	t.Run("FilteredChannel", func(t *testing.T) {
		f := newRouterFixture()
		f.startSending(4)

		f.router.Route([]midi.Event{
			midi.NewControlChange(0, 4, 7, 100),
			midi.NewControlChange(1, 2, 7, 100),
		}, f.out)

		events := f.out.Events()
		if len(events) != 1 {
			t.Fatalf("Expected 1 forwarded event, got %d", len(events))
		}
		if msg := midi.Decode(&events[0]); msg.CC.Channel != 2 {
			t.Errorf("Expected channel 2 to pass, got %d", msg.CC.Channel)
		}
		if s := f.router.Stats(); s.Suppressed != 1 || s.Forwarded != 1 {
			t.Errorf("Unexpected stats %+v", s)
		}
	})

	t.Run("AllChannels", func(t *testing.T) {
		f := newRouterFixture()
		f.startSending(AllChannels)

		f.router.Route([]midi.Event{
			midi.NewControlChange(0, 0, 1, 1),
			midi.NewControlChange(0, 15, 1, 1),
		}, f.out)
		if !f.out.IsEmpty() {
			t.Errorf("Expected every CC suppressed, got %d", f.out.Len())
		}
	})

	t.Run("ProgramChangeNotSuppressed", func(t *testing.T) {
		f := newRouterFixture()
		f.startSending(AllChannels)

		f.router.Route([]midi.Event{programChange(0, 0, 3)}, f.out)
		if f.out.Len() != 1 {
			t.Error("Program Change must pass while sending")
		}
	})
}

func TestRouterProgramChange(t *testing.T) {
	tests := []struct {
		name      string
		pcChannel int
		pcProgram int
		event     midi.Event
		trigger   bool
	}{
		{"AnyChannel", 0, 5, programChange(0, 3, 5), true},
		{"WrongProgram", 0, 5, programChange(0, 3, 6), false},
		{"MatchingChannel", 4, 5, programChange(0, 3, 5), true},
		{"OtherChannel", 4, 5, programChange(0, 2, 5), false},
		{"Disabled", ProgramFilterDisabled, 5, programChange(0, 3, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture()
			f.router.Configure(false, tt.pcChannel, tt.pcProgram)
			f.router.Route([]midi.Event{tt.event}, f.out)

			if f.out.Len() != 1 || f.out.Events()[0].Data != tt.event.Data {
				t.Error("Program Change should be forwarded unchanged")
			}
			if got := f.router.Stats().ProgramTriggers == 1; got != tt.trigger {
				t.Errorf("Expected trigger %v, got %v", tt.trigger, got)
			}
			// Applied on the block after the one that saw it
			f.trigger.Aggregate(false, stopped)
			if got := f.trigger.Aggregate(false, stopped); got != tt.trigger {
				t.Errorf("Expected deferred start %v, got %v", tt.trigger, got)
			}
		})
	}
}

func TestRouterPassThrough(t *testing.T) {
	f := newRouterFixture()
	f.startSending(AllChannels)

	sysex := []byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}
	input := []midi.Event{
		{Frame: 0, SysEx: sysex},
		{Frame: 1, Size: 1, Data: [4]byte{0xF8}},
		{Frame: 2, Size: 3, Data: [4]byte{0x90, 60, 100}},
		{Frame: 3, Size: 0},
		{Frame: 4, Size: 2, Data: [4]byte{0xB0, 1}},
	}
	f.router.Route(input, f.out)

	events := f.out.Events()
	if len(events) != len(input) {
		t.Fatalf("Expected %d forwarded events, got %d", len(input), len(events))
	}
	if string(events[0].SysEx) != string(sysex) {
		t.Error("SysEx payload changed")
	}
	for i := range input {
		if events[i].Frame != input[i].Frame {
			t.Errorf("Event %d: frame changed", i)
		}
	}
}

func TestRouterDropped(t *testing.T) {
	f := newRouterFixture()
	f.out.SetCapacity(1)

	f.router.Route([]midi.Event{
		midi.NewControlChange(0, 0, 1, 1),
		midi.NewControlChange(1, 0, 2, 2),
	}, f.out)

	if s := f.router.Stats(); s.Forwarded != 1 || s.Dropped != 1 {
		t.Errorf("Expected 1 forwarded and 1 dropped, got %+v", s)
	}

	f.router.ResetStats()
	if f.router.Stats() != (Stats{}) {
		t.Error("Stats not reset")
	}
}
