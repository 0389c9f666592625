// Package process provides the per-block processing context handed to
// processors by the host.
package process

import (
	"github.com/SpotlightKid/midiomatic/pkg/framework/param"
	"github.com/SpotlightKid/midiomatic/pkg/midi"
)

// Transport describes the host's playback state at the start of a block.
type Transport struct {
	Playing bool
	// Frame is the host position of the block's first frame.
	Frame uint64
}

// AtZero reports whether the block starts at host position zero.
func (t Transport) AtZero() bool {
	return t.Frame == 0
}

// Context provides a clean API for block processing with zero allocations
type Context struct {
	SampleRate float64
	Frames     uint32
	Transport  Transport

	// Input events for the block, ordered by arrival. Frames are in
	// [0, Frames).
	Input []midi.Event
	// Output receives events in emission order.
	Output midi.Writer

	// Parameter access
	params *param.Registry
}

// NewContext creates a new process context bound to a parameter registry
func NewContext(params *param.Registry) *Context {
	return &Context{
		params: params,
	}
}

// Begin prepares the context for the next block.
func (c *Context) Begin(frames uint32, transport Transport, input []midi.Event, output midi.Writer) {
	c.Frames = frames
	c.Transport = transport
	c.Input = input
	c.Output = output
}

// Param returns the current value of a parameter (0-1 normalized)
func (c *Context) Param(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the current plain value of a parameter
func (c *Context) ParamPlain(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// ParamInt returns the current plain value of a parameter rounded to an int
func (c *Context) ParamInt(id uint32) int {
	if p := c.params.Get(id); p != nil {
		return p.IntValue()
	}
	return 0
}

// NumFrames returns the number of frames to process
func (c *Context) NumFrames() uint32 {
	return c.Frames
}

// WriteEvent sends an event to the output. It returns false when the
// output has no room or no output is attached.
func (c *Context) WriteEvent(e *midi.Event) bool {
	if c.Output == nil {
		return false
	}
	return c.Output.WriteEvent(e)
}
