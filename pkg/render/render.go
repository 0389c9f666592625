// Package render drives a processor offline over a timeline of MIDI events
// and converts timelines from and to Standard MIDI Files.
package render

import (
	"errors"
	"fmt"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/SpotlightKid/midiomatic/pkg/framework/debug"
	"github.com/SpotlightKid/midiomatic/pkg/framework/plugin"
	"github.com/SpotlightKid/midiomatic/pkg/framework/process"
	"github.com/SpotlightKid/midiomatic/pkg/midi"
)

// Resolution and tempo of rendered files
const (
	OutputResolution = 960
	OutputBPM        = 120.0
)

// TimedEvent is an event at an absolute frame of the timeline.
type TimedEvent struct {
	Frame uint64
	Event midi.Event
}

// Pulse sets a parameter to its maximum for the block containing Frame and
// restores it to its minimum for the following block.
type Pulse struct {
	Frame uint64
	Param uint32
}

// Options configures an offline run.
type Options struct {
	SampleRate float64
	BlockSize  int

	Pulses []Pulse

	// PlayAt starts the host transport in the block containing this frame;
	// negative leaves the transport stopped. PlayPosition is the host
	// position reported for that first playing block.
	PlayAt       int64
	PlayPosition uint64

	// Busy keeps the run going after the last input event until it
	// returns false. The transport start and pending pulses also keep it
	// going.
	Busy func() bool
	// MaxTailBlocks bounds the blocks run after the last input event.
	MaxTailBlocks int

	// OutputCapacity is the number of events the host accepts per block.
	OutputCapacity int

	Profiler *debug.Profiler
	Logger   *debug.Logger
}

// Result summarizes a run.
type Result struct {
	Blocks int
	Frames uint64
	Input  int
	Output int
}

// ErrUnsupportedTimeFormat is returned for SMPTE timed files.
var ErrUnsupportedTimeFormat = errors.New("only metric time format is supported")

// Run processes the timeline block by block and returns the emitted
// events with absolute frames.
func Run(proc plugin.Processor, input []TimedEvent, opts Options) ([]TimedEvent, Result, error) {
	if opts.SampleRate <= 0 || opts.BlockSize <= 0 {
		return nil, Result{}, fmt.Errorf("invalid sample rate %v or block size %d", opts.SampleRate, opts.BlockSize)
	}
	if opts.OutputCapacity <= 0 {
		opts.OutputCapacity = 4096
	}
	if opts.MaxTailBlocks <= 0 {
		opts.MaxTailBlocks = int(math.Ceil(opts.SampleRate * 60 / float64(opts.BlockSize)))
	}
	if err := proc.Initialize(opts.SampleRate, int32(opts.BlockSize)); err != nil {
		return nil, Result{}, fmt.Errorf("initializing processor: %w", err)
	}
	if err := proc.SetActive(true); err != nil {
		return nil, Result{}, fmt.Errorf("activating processor: %w", err)
	}
	defer proc.SetActive(false)

	params := proc.GetParameters()
	ctx := process.NewContext(params)
	ctx.SampleRate = opts.SampleRate
	queue := midi.NewEventQueue(opts.OutputCapacity)

	block := uint64(opts.BlockSize)
	var lastFrame uint64
	if len(input) > 0 {
		lastFrame = input[len(input)-1].Frame
	}

	var (
		output  []TimedEvent
		blockIn []midi.Event
		res     Result
		next    int
		pending []uint32
		tail    int
	)
	for start := uint64(0); ; start += block {
		end := start + block
		if start > lastFrame && next >= len(input) {
			// Scheduled pulses and the transport start are finite and always
			// reached; MaxTailBlocks only bounds Busy.
			if !pulseAfter(opts.Pulses, start) && !playAfter(opts, start, block) {
				busy := opts.Busy != nil && opts.Busy()
				if (!busy && len(pending) == 0) || tail >= opts.MaxTailBlocks {
					break
				}
				tail++
			}
		}

		// Release pulses from the previous block
		for _, id := range pending {
			if p := params.Get(id); p != nil {
				p.SetPlainValue(p.Min)
			}
		}
		pending = pending[:0]
		for _, pulse := range opts.Pulses {
			if pulse.Frame >= start && pulse.Frame < end {
				if p := params.Get(pulse.Param); p != nil {
					p.SetPlainValue(p.Max)
					pending = append(pending, pulse.Param)
				}
			}
		}

		blockIn = blockIn[:0]
		for ; next < len(input) && input[next].Frame < end; next++ {
			ev := input[next].Event
			ev.Frame = uint32(input[next].Frame - start)
			blockIn = append(blockIn, ev)
		}

		queue.Clear()
		ctx.Begin(uint32(block), transportAt(opts, start, block), blockIn, queue)

		if opts.Profiler != nil {
			stop := opts.Profiler.Start("process")
			proc.Process(ctx)
			stop()
		} else {
			proc.Process(ctx)
		}

		for _, ev := range queue.Events() {
			output = append(output, TimedEvent{Frame: start + uint64(ev.Frame), Event: cloneEvent(ev)})
		}
		res.Blocks++
		res.Input += len(blockIn)
		res.Frames = end
	}
	res.Output = len(output)

	if opts.Logger != nil {
		opts.Logger.Debug("rendered %d blocks (%d frames): %d events in, %d out", res.Blocks, res.Frames, res.Input, res.Output)
	}
	return output, res, nil
}

func pulseAfter(pulses []Pulse, frame uint64) bool {
	for _, p := range pulses {
		if p.Frame >= frame {
			return true
		}
	}
	return false
}

// playAfter reports whether the transport starts in or after the block at
// start.
func playAfter(opts Options, start, block uint64) bool {
	return opts.PlayAt >= 0 && uint64(opts.PlayAt)/block*block >= start
}

func transportAt(opts Options, start, block uint64) process.Transport {
	if opts.PlayAt < 0 {
		return process.Transport{}
	}
	playStart := uint64(opts.PlayAt) / block * block
	if start < playStart {
		return process.Transport{}
	}
	return process.Transport{Playing: true, Frame: opts.PlayPosition + start - playStart}
}

func cloneEvent(e midi.Event) midi.Event {
	if e.SysEx != nil {
		e.SysEx = append([]byte(nil), e.SysEx...)
	}
	return e
}

type tickedEvent struct {
	tick  uint64
	track int
	index int
	msg   smf.Message
}

// FromSMF merges all tracks of a file into one timeline, converting ticks
// to frames with the file's tempo changes. Meta events are dropped.
func FromSMF(s *smf.SMF, sampleRate float64) ([]TimedEvent, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrUnsupportedTimeFormat
	}
	resolution := float64(uint16(ticks))
	if resolution == 0 {
		return nil, fmt.Errorf("invalid resolution 0")
	}

	var all []tickedEvent
	for ti, tr := range s.Tracks {
		var abs uint64
		for i, ev := range tr {
			abs += uint64(ev.Delta)
			all = append(all, tickedEvent{tick: abs, track: ti, index: i, msg: ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].tick < all[j].tick
	})

	var (
		out      []TimedEvent
		bpm      = 120.0
		lastTick uint64
		seconds  float64
	)
	for _, te := range all {
		seconds += float64(te.tick-lastTick) * 60 / (bpm * resolution)
		lastTick = te.tick

		var tempo float64
		if te.msg.GetMetaTempo(&tempo) {
			if tempo > 0 {
				bpm = tempo
			}
			continue
		}
		if te.msg.IsMeta() || len(te.msg) == 0 {
			continue
		}
		frame := uint64(math.Round(seconds * sampleRate))
		out = append(out, TimedEvent{Frame: frame, Event: midi.FromMessage(0, gomidi.Message(te.msg))})
	}
	return out, nil
}

// ToSMF writes a timeline into a single track file at OutputBPM.
func ToSMF(events []TimedEvent, sampleRate float64) (*smf.SMF, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(OutputResolution)

	ticksPerFrame := OutputBPM / 60 * OutputResolution / sampleRate

	var track smf.Track
	track.Add(0, smf.MetaTempo(OutputBPM))
	var lastTick uint64
	for i := range events {
		tick := uint64(math.Round(float64(events[i].Frame) * ticksPerFrame))
		if tick < lastTick {
			tick = lastTick
		}
		track.Add(uint32(tick-lastTick), events[i].Event.Message())
		lastTick = tick
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("adding track: %w", err)
	}
	return s, nil
}

// ReadFile loads a Standard MIDI File as a timeline.
func ReadFile(path string, sampleRate float64) ([]TimedEvent, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	events, err := FromSMF(s, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// WriteFile saves a timeline as a Standard MIDI File.
func WriteFile(path string, events []TimedEvent, sampleRate float64) error {
	s, err := ToSMF(events, sampleRate)
	if err != nil {
		return err
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
