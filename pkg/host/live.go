// Package host runs a processor against live MIDI ports on a real-time
// block clock.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/SpotlightKid/midiomatic/pkg/framework/debug"
	"github.com/SpotlightKid/midiomatic/pkg/framework/param"
	"github.com/SpotlightKid/midiomatic/pkg/framework/plugin"
	"github.com/SpotlightKid/midiomatic/pkg/framework/process"
	"github.com/SpotlightKid/midiomatic/pkg/midi"
)

// SendFunc delivers one outgoing message, e.g. the sender returned by
// gomidi's SendTo.
type SendFunc func(msg gomidi.Message) error

// Config configures a live host.
type Config struct {
	SampleRate float64
	BlockSize  int
	// InputCapacity bounds the events buffered between two blocks.
	InputCapacity int
	// OutputCapacity bounds the events accepted from one block.
	OutputCapacity int
}

// Live feeds messages received between two ticks to the processor at frame
// 0 of the next block and sends its output in order.
type Live struct {
	proc   plugin.Processor
	params *param.Registry
	ctx    *process.Context
	out    *midi.EventQueue
	send   SendFunc
	logger *debug.Logger

	blockSize int
	period    time.Duration

	in       chan midi.Event
	pulses   chan uint32
	blockIn  []midi.Event
	released []uint32

	playing  atomic.Bool
	position uint64

	dropped atomic.Uint64
	blocks  atomic.Uint64
}

// NewLive initializes and activates proc.
func NewLive(proc plugin.Processor, cfg Config, send SendFunc, logger *debug.Logger) (*Live, error) {
	if cfg.SampleRate <= 0 || cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v or block size %d", cfg.SampleRate, cfg.BlockSize)
	}
	if send == nil {
		return nil, errors.New("no output")
	}
	if cfg.InputCapacity <= 0 {
		cfg.InputCapacity = 1024
	}
	if cfg.OutputCapacity <= 0 {
		cfg.OutputCapacity = 1024
	}
	if logger == nil {
		logger = debug.Default()
	}

	if err := proc.Initialize(cfg.SampleRate, int32(cfg.BlockSize)); err != nil {
		return nil, fmt.Errorf("initializing processor: %w", err)
	}
	if err := proc.SetActive(true); err != nil {
		return nil, fmt.Errorf("activating processor: %w", err)
	}

	ctx := process.NewContext(proc.GetParameters())
	ctx.SampleRate = cfg.SampleRate

	return &Live{
		proc:      proc,
		params:    proc.GetParameters(),
		ctx:       ctx,
		out:       midi.NewEventQueue(cfg.OutputCapacity),
		send:      send,
		logger:    logger,
		blockSize: cfg.BlockSize,
		period:    time.Duration(float64(cfg.BlockSize) / cfg.SampleRate * float64(time.Second)),
		in:        make(chan midi.Event, cfg.InputCapacity),
		pulses:    make(chan uint32, 16),
		blockIn:   make([]midi.Event, 0, cfg.InputCapacity),
	}, nil
}

// Receive queues an incoming message for the next block. It never blocks;
// messages arriving while the buffer is full are dropped.
func (l *Live) Receive(msg gomidi.Message) bool {
	select {
	case l.in <- midi.FromMessage(0, msg):
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// Pulse sets a parameter to its maximum for the next block.
func (l *Live) Pulse(id uint32) {
	select {
	case l.pulses <- id:
	default:
	}
}

// SetPlaying starts or stops the simulated host transport.
func (l *Live) SetPlaying(playing bool) {
	l.playing.Store(playing)
}

// Dropped returns the number of incoming messages lost to a full buffer.
func (l *Live) Dropped() uint64 {
	return l.dropped.Load()
}

// Blocks returns the number of processed blocks.
func (l *Live) Blocks() uint64 {
	return l.blocks.Load()
}

// Block processes one block and sends its output.
func (l *Live) Block() {
	for _, id := range l.released {
		l.params.SetPlain(id, 0)
	}
	l.released = l.released[:0]
drainPulses:
	for {
		select {
		case id := <-l.pulses:
			l.params.SetPlain(id, 1)
			l.released = append(l.released, id)
		default:
			break drainPulses
		}
	}

	l.blockIn = l.blockIn[:0]
drainInput:
	for len(l.blockIn) < cap(l.blockIn) {
		select {
		case ev := <-l.in:
			l.blockIn = append(l.blockIn, ev)
		default:
			break drainInput
		}
	}

	transport := process.Transport{}
	if l.playing.Load() {
		transport = process.Transport{Playing: true, Frame: l.position}
		l.position += uint64(l.blockSize)
	} else {
		l.position = 0
	}

	l.out.Clear()
	l.ctx.Begin(uint32(l.blockSize), transport, l.blockIn, l.out)
	l.proc.Process(l.ctx)
	l.blocks.Add(1)

	events := l.out.Events()
	for i := range events {
		if err := l.send(events[i].Message()); err != nil {
			l.logger.Warn("send failed for %v: %v", events[i], err)
		}
	}
}

// Run processes a block on every tick of the block clock until ctx is
// done, then deactivates the processor.
func (l *Live) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	defer l.proc.SetActive(false)

	l.logger.Info("running with %d frame blocks every %v", l.blockSize, l.period)
	for {
		select {
		case <-ticker.C:
			l.Block()
		case <-ctx.Done():
			if dropped := l.Dropped(); dropped > 0 {
				l.logger.Warn("dropped %d incoming messages", dropped)
			}
			return nil
		}
	}
}
