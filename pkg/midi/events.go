package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type EventType uint8

const (
	EventTypeOther EventType = iota
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeSystem
)

func (t EventType) String() string {
	switch t {
	case EventTypeControlChange:
		return "ControlChange"
	case EventTypeProgramChange:
		return "ProgramChange"
	case EventTypeSystem:
		return "System"
	default:
		return "Other"
	}
}

// Status bytes with the channel nibble cleared.
const (
	StatusControlChange uint8 = 0xB0
	StatusProgramChange uint8 = 0xC0
	StatusSystem        uint8 = 0xF0
)

// Event is a single MIDI event as delivered by the host for one block.
// Data holds up to three message bytes; SysEx, when set, carries an
// extended System Exclusive payload and Data is ignored.
type Event struct {
	Frame uint32
	Size  uint8
	Data  [4]byte
	SysEx []byte
}

// Bytes returns the valid message bytes of the event.
func (e *Event) Bytes() []byte {
	if e.SysEx != nil {
		return e.SysEx
	}
	n := int(e.Size)
	if n > len(e.Data) {
		n = len(e.Data)
	}
	return e.Data[:n]
}

// Message returns the event as a gomidi message. The returned slice aliases
// the event's storage.
func (e *Event) Message() gomidi.Message {
	return gomidi.Message(e.Bytes())
}

func (e Event) String() string {
	if e.SysEx != nil {
		return fmt.Sprintf("SysEx{len:%d, offset:%d}", len(e.SysEx), e.Frame)
	}
	return fmt.Sprintf("Event{% X, offset:%d}", e.Data[:min(int(e.Size), len(e.Data))], e.Frame)
}

// FromMessage builds an event at the given frame from a gomidi message.
// Messages longer than three bytes are carried as SysEx.
func FromMessage(frame uint32, msg gomidi.Message) Event {
	e := Event{Frame: frame}
	if len(msg) > 3 || (len(msg) > 0 && msg[0] == 0xF0) {
		e.SysEx = append([]byte(nil), msg...)
		return e
	}
	e.Size = uint8(copy(e.Data[:], msg))
	return e
}

// NewControlChange builds a three byte Control Change event.
func NewControlChange(frame uint32, channel, controller, value uint8) Event {
	return Event{
		Frame: frame,
		Size:  3,
		Data:  [4]byte{StatusControlChange | channel&0x0F, controller & 0x7F, value & 0x7F},
	}
}

type ControlChange struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

func (m ControlChange) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d}", m.Channel, m.Controller, m.Value)
}

type ProgramChange struct {
	Channel uint8
	Program uint8
}

func (m ProgramChange) String() string {
	return fmt.Sprintf("ProgramChange{ch:%d, prog:%d}", m.Channel, m.Program)
}

type SystemMessage struct {
	Status uint8
}

// Message is a decoded event. Only the payload matching Type is populated.
type Message struct {
	Type   EventType
	CC     ControlChange
	PC     ProgramChange
	System SystemMessage
}

// Decode classifies an event. It never fails: events that are not a
// well-formed Control Change, Program Change or system message decode as
// EventTypeOther.
func Decode(e *Event) Message {
	if e.SysEx != nil {
		return Message{Type: EventTypeSystem, System: SystemMessage{Status: StatusSystem}}
	}
	if e.Size == 0 || int(e.Size) > len(e.Data) {
		return Message{Type: EventTypeOther}
	}

	status := e.Data[0]
	if status >= StatusSystem {
		return Message{Type: EventTypeSystem, System: SystemMessage{Status: status}}
	}

	msg := gomidi.Message(e.Data[:e.Size])
	switch {
	case e.Size == 3 && status&0xF0 == StatusControlChange:
		var ch, ctrl, val uint8
		if msg.GetControlChange(&ch, &ctrl, &val) {
			return Message{Type: EventTypeControlChange, CC: ControlChange{Channel: ch, Controller: ctrl, Value: val}}
		}
	case e.Size == 2 && status&0xF0 == StatusProgramChange:
		var ch, prog uint8
		if msg.GetProgramChange(&ch, &prog) {
			return Message{Type: EventTypeProgramChange, PC: ProgramChange{Channel: ch, Program: prog}}
		}
	}
	return Message{Type: EventTypeOther}
}

const (
	CCModWheel       uint8 = 1
	CCBreath         uint8 = 2
	CCFoot           uint8 = 4
	CCPortamentoTime uint8 = 5
	CCVolume         uint8 = 7
	CCBalance        uint8 = 8
	CCPan            uint8 = 10
	CCExpression     uint8 = 11
	CCSustain        uint8 = 64
	CCAllSoundOff    uint8 = 120
	CCResetAll       uint8 = 121
	CCAllNotesOff    uint8 = 123
)
