package ccrecorder

import (
	"github.com/SpotlightKid/midiomatic/pkg/framework/debug"
	"github.com/SpotlightKid/midiomatic/pkg/framework/plugin"
	"github.com/SpotlightKid/midiomatic/pkg/framework/process"
)

// Info describes the recorder.
var Info = plugin.Info{
	ID:       "de.chrisarndt.midiomatic.ccrecorder",
	Name:     "MIDI CC Recorder",
	Version:  "1.1.0",
	Vendor:   "chrisarndt.de",
	Category: "MIDI",
	License:  "MIT",
}

// Recorder captures incoming Control Change values and replays them on
// request. Process runs on the real-time thread; GetState and SetState may
// be called from another thread only when the host guarantees they do not
// overlap with Process.
type Recorder struct {
	*plugin.BaseProcessor

	table   Table
	sched   Scheduler
	trigger Trigger
	router  *Router

	// Interval in ms latched when the running scan started
	activeIntervalMs int

	logger *debug.Logger
}

// New creates a recorder with a cleared table and default parameters.
func New() *Recorder {
	r := &Recorder{
		BaseProcessor: plugin.NewBaseProcessor(Info),
		logger:        debug.Default(),
	}
	r.table.Clear()
	r.router = NewRouter(&r.table, &r.sched, &r.trigger)

	if err := registerParameters(r.Parameters()); err != nil {
		// IDs and symbols are constants; a clash is a programming error
		panic(err)
	}

	states := r.StateManager()
	for ch := 0; ch < NumChannels; ch++ {
		states.Declare(StateKey(ch), NoState)
	}
	states.Bind(r.GetState, r.SetState)

	r.OnInitialize(func(sampleRate float64, maxBlockSize int32) error {
		r.logger.Debug("ccrecorder: initialized at %.0f Hz, max block %d", sampleRate, maxBlockSize)
		r.Reset()
		return nil
	})
	r.OnReset(r.Reset)
	r.OnSampleRateChange(r.sampleRateChanged)
	return r
}

// SetLogger replaces the logger used by non-realtime entry points.
func (r *Recorder) SetLogger(l *debug.Logger) {
	r.logger = l
}

// Process handles one block: parameters are read, a pending clear is
// applied, incoming events are routed, start requests are combined and
// the scheduler emits whatever is due in this block. The send channel and
// interval are fixed when a send starts; changes apply to the next send.
func (r *Recorder) Process(ctx *process.Context) {
	if ctx.SampleRate > 0 && ctx.SampleRate != r.SampleRate() {
		r.SetSampleRate(ctx.SampleRate)
	}

	s := r.readSettings(ctx)

	if r.trigger.ClearEdge(s.clear) {
		r.table.Clear()
	}

	r.router.Configure(s.record, s.pcChannel, s.pcProgram)
	r.router.Route(ctx.Input, ctx)

	r.trigger.SetMode(s.transport)
	if r.trigger.Aggregate(s.send, ctx.Transport) {
		if r.sched.Start(s.sendFilter, IntervalFrames(r.SampleRate(), s.intervalMs)) {
			r.activeIntervalMs = s.intervalMs
		}
	}

	n := r.sched.Run(&r.table, ctx.Frames, ctx)
	r.router.stats.Emitted += uint64(n)
}

func (r *Recorder) readSettings(ctx *process.Context) settings {
	sendChannel := min(max(ctx.ParamInt(ParamSendChannel), 0), NumChannels)
	return settings{
		record:     ctx.ParamPlain(ParamRecord) > 0,
		clear:      ctx.ParamPlain(ParamClear) > 0,
		send:       ctx.ParamPlain(ParamSend) > 0,
		transport:  ClampTransportMode(ctx.ParamInt(ParamTransportTrigger)),
		pcChannel:  min(max(ctx.ParamInt(ParamPCTriggerChannel), 0), ProgramFilterDisabled),
		pcProgram:  min(max(ctx.ParamInt(ParamPCTriggerProgram), 0), 127),
		sendFilter: sendChannel - 1, // 0 (all) maps to AllChannels
		intervalMs: min(max(ctx.ParamInt(ParamSendInterval), 1), 200),
	}
}

func (r *Recorder) sampleRateChanged(sampleRate float64) {
	if r.sched.Sending() {
		r.sched.SetInterval(IntervalFrames(sampleRate, r.activeIntervalMs))
	}
}

// SampleRateChanged informs the recorder of a new host sample rate.
func (r *Recorder) SampleRateChanged(sampleRate float64) {
	if err := r.SetSampleRate(sampleRate); err != nil {
		r.logger.Warn("ccrecorder: ignoring sample rate %v: %v", sampleRate, err)
	}
}

// Reset stops a running send and drops queued Program Change triggers.
// Captured values are kept.
func (r *Recorder) Reset() {
	r.sched.Reset()
	r.trigger.Reset()
}

// Capture stores a controller value. It does nothing while sending or
// while recording is disabled and reports whether the value was stored.
func (r *Recorder) Capture(ch, cc int, value uint8) bool {
	if r.sched.Sending() || !r.recordEnabled() || !inRange(ch, cc) {
		return false
	}
	r.table.Set(ch, cc, value)
	return true
}

func (r *Recorder) recordEnabled() bool {
	p := r.Parameters().Get(ParamRecord)
	return p != nil && p.IsOn()
}

// Clear forgets all captured values.
func (r *Recorder) Clear() {
	r.table.Clear()
}

// Read returns a captured value or Sentinel.
func (r *Recorder) Read(ch, cc int) byte {
	return r.table.Read(ch, cc)
}

// Snapshot returns a copy of the captured table.
func (r *Recorder) Snapshot() Table {
	return r.table
}

// State returns the scheduler state.
func (r *Recorder) State() State {
	return r.sched.State()
}

// Busy reports whether a send is running or a start is queued for a
// coming block. Offline hosts keep processing while it is true.
func (r *Recorder) Busy() bool {
	return r.sched.Sending() || r.trigger.Pending()
}

// Stats returns the routing and emission counters.
func (r *Recorder) Stats() Stats {
	return r.router.Stats()
}

// GetState returns the persisted text of a state key. Unknown keys yield
// NoState.
func (r *Recorder) GetState(key string) string {
	ch, ok := ParseStateKey(key)
	if !ok {
		r.logger.Debug("ccrecorder: unknown state key %q", key)
		return NoState
	}
	return Export(&r.table, ch)
}

// SetState restores a channel from its persisted text. Malformed keys and
// values are ignored.
func (r *Recorder) SetState(key, value string) {
	ch, ok := ParseStateKey(key)
	if !ok {
		r.logger.Debug("ccrecorder: ignoring state key %q", key)
		return
	}
	if value == NoState {
		return
	}
	if !Import(&r.table, ch, value) {
		r.logger.Debug("ccrecorder: ignoring malformed state for %s", key)
	}
}
