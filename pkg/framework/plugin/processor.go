// Package plugin provides base processor functionality shared by MIDI
// processors hosted by this module.
package plugin

import (
	"errors"

	"github.com/SpotlightKid/midiomatic/pkg/framework/param"
	"github.com/SpotlightKid/midiomatic/pkg/framework/process"
	"github.com/SpotlightKid/midiomatic/pkg/framework/state"
)

// ErrInvalidSampleRate is returned when a host supplies a non-positive
// sample rate.
var ErrInvalidSampleRate = errors.New("sample rate must be positive")

// Processor is the interface hosts drive. Process is called once per block
// on the real-time thread and must not allocate, block or log.
type Processor interface {
	Initialize(sampleRate float64, maxBlockSize int32) error
	Process(ctx *process.Context)
	GetParameters() *param.Registry
	SetActive(active bool) error
}

// BaseProcessor provides common functionality for processors
type BaseProcessor struct {
	Info Info

	params       *param.Registry
	state        *state.Manager
	sampleRate   float64
	maxBlockSize int32

	// Optional callbacks for customization
	onInitialize       func(sampleRate float64, maxBlockSize int32) error
	onSetActive        func(active bool) error
	onReset            func()
	onSampleRateChange func(sampleRate float64)
}

// NewBaseProcessor creates a new base processor
func NewBaseProcessor(info Info) *BaseProcessor {
	params := param.NewRegistry()
	return &BaseProcessor{
		Info:   info,
		params: params,
		state:  state.NewManager(params),
	}
}

// Initialize implements the Processor interface
func (b *BaseProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	b.sampleRate = sampleRate
	b.maxBlockSize = maxBlockSize

	if b.onInitialize != nil {
		return b.onInitialize(sampleRate, maxBlockSize)
	}
	return nil
}

// GetParameters implements the Processor interface
func (b *BaseProcessor) GetParameters() *param.Registry {
	return b.params
}

// SetActive implements the Processor interface. Deactivation resets the
// processor.
func (b *BaseProcessor) SetActive(active bool) error {
	if !active && b.onReset != nil {
		b.onReset()
	}
	if b.onSetActive != nil {
		return b.onSetActive(active)
	}
	return nil
}

// SetSampleRate notifies the processor of a new host sample rate. The
// callback only fires when the rate actually changes.
func (b *BaseProcessor) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if sampleRate == b.sampleRate {
		return nil
	}
	b.sampleRate = sampleRate
	if b.onSampleRateChange != nil {
		b.onSampleRateChange(sampleRate)
	}
	return nil
}

// SampleRate returns the current sample rate
func (b *BaseProcessor) SampleRate() float64 {
	return b.sampleRate
}

// MaxBlockSize returns the largest block the host announced
func (b *BaseProcessor) MaxBlockSize() int32 {
	return b.maxBlockSize
}

// Parameters returns the parameter registry for adding parameters
func (b *BaseProcessor) Parameters() *param.Registry {
	return b.params
}

// StateManager returns the manager for persisted state
func (b *BaseProcessor) StateManager() *state.Manager {
	return b.state
}

// OnInitialize sets a callback for initialization
func (b *BaseProcessor) OnInitialize(fn func(sampleRate float64, maxBlockSize int32) error) {
	b.onInitialize = fn
}

// OnSetActive sets a callback for activation/deactivation
func (b *BaseProcessor) OnSetActive(fn func(active bool) error) {
	b.onSetActive = fn
}

// OnReset sets a callback for when the processor should reset its state
func (b *BaseProcessor) OnReset(fn func()) {
	b.onReset = fn
}

// OnSampleRateChange sets a callback for sample rate changes
func (b *BaseProcessor) OnSampleRateChange(fn func(sampleRate float64)) {
	b.onSampleRateChange = fn
}
