// Package ccrecorder implements a MIDI Control Change recorder. Incoming
// controller values are captured per channel and can later be replayed as
// a paced burst of Control Change events, started by a trigger parameter,
// the host transport or a Program Change.
package ccrecorder

const (
	NumChannels    = 16
	NumControllers = 128

	// Sentinel marks a controller that was never captured.
	Sentinel byte = 0xFF
)

// Table holds the last captured value of every controller on every channel.
type Table [NumChannels][NumControllers]byte

// NewTable returns a cleared table.
func NewTable() *Table {
	t := &Table{}
	t.Clear()
	return t
}

// Clear marks every cell as not captured.
func (t *Table) Clear() {
	for ch := range t {
		for cc := range t[ch] {
			t[ch][cc] = Sentinel
		}
	}
}

// Read returns the captured value or Sentinel. Out of range coordinates
// read as Sentinel.
func (t *Table) Read(ch, cc int) byte {
	if !inRange(ch, cc) {
		return Sentinel
	}
	return t[ch][cc]
}

// Set stores a 7-bit value. Out of range coordinates are ignored.
func (t *Table) Set(ch, cc int, value byte) {
	if !inRange(ch, cc) {
		return
	}
	t[ch][cc] = value & 0x7F
}

// Captured counts cells holding a value.
func (t *Table) Captured() int {
	n := 0
	for ch := range t {
		n += t.CapturedOn(ch)
	}
	return n
}

// CapturedOn counts cells holding a value on one channel.
func (t *Table) CapturedOn(ch int) int {
	if ch < 0 || ch >= NumChannels {
		return 0
	}
	n := 0
	for _, v := range t[ch] {
		if v != Sentinel {
			n++
		}
	}
	return n
}

func inRange(ch, cc int) bool {
	return ch >= 0 && ch < NumChannels && cc >= 0 && cc < NumControllers
}
