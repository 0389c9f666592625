package state

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/SpotlightKid/midiomatic/pkg/framework/param"
)

const magic = "MIDIOM"

// Manager handles plugin state saving and loading. A plugin's state is its
// parameter values plus a set of declared text values addressed by key.
type Manager struct {
	version  uint32
	registry *param.Registry
	keys     []string
	defaults map[string]string
	get      GetStateFunc
	set      SetStateFunc
}

// GetStateFunc returns the current text value for a declared key.
type GetStateFunc func(key string) string

// SetStateFunc applies a text value for a declared key. Implementations
// must tolerate malformed values.
type SetStateFunc func(key, value string)

// NewManager creates a new state manager
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  1,
		registry: registry,
		defaults: make(map[string]string),
	}
}

// Declare registers a state key with its default value. Declaring a key
// twice only updates the default.
func (m *Manager) Declare(key, defaultValue string) {
	if _, exists := m.defaults[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.defaults[key] = defaultValue
}

// Bind connects the manager to the plugin's state accessors
func (m *Manager) Bind(get GetStateFunc, set SetStateFunc) {
	m.get = get
	m.set = set
}

// Keys returns the declared keys in declaration order
func (m *Manager) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Default returns the default value of a key and whether it is declared
func (m *Manager) Default(key string) (string, bool) {
	v, ok := m.defaults[key]
	return v, ok
}

// Get returns the current value of a declared key
func (m *Manager) Get(key string) string {
	def, ok := m.defaults[key]
	if !ok {
		return ""
	}
	if m.get == nil {
		return def
	}
	return m.get(key)
}

// Set applies a value to a declared key. Unknown keys are ignored.
func (m *Manager) Set(key, value string) bool {
	if _, ok := m.defaults[key]; !ok || m.set == nil {
		return false
	}
	m.set(key, value)
	return true
}

// Save writes the plugin state to a writer
func (m *Manager) Save(w io.Writer) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	// Triggers are momentary and never persisted
	params := make([]*param.Parameter, 0, m.registry.Count())
	for _, p := range m.registry.All() {
		if p.Flags&param.IsTrigger == 0 {
			params = append(params, p)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(params))); err != nil {
		return err
	}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.keys))); err != nil {
		return err
	}
	for _, key := range m.keys {
		if err := writeString(w, key); err != nil {
			return err
		}
		if err := writeString(w, m.Get(key)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the plugin state from a reader
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if string(header) != magic {
		return fmt.Errorf("invalid state format")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version > m.version {
		return fmt.Errorf("state version %d is newer than supported version %d", version, m.version)
	}

	var paramCount int32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return err
	}
	for i := int32(0); i < paramCount; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return err
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return err
		}
		// Ignore unknown parameters for forward compatibility
		if p := m.registry.Get(id); p != nil {
			p.SetValue(value)
		}
	}

	var stateCount uint32
	if err := binary.Read(r, binary.LittleEndian, &stateCount); err != nil {
		return err
	}
	for i := uint32(0); i < stateCount; i++ {
		key, err := readString(r)
		if err != nil {
			return fmt.Errorf("state entry %d: %w", i, err)
		}
		value, err := readString(r)
		if err != nil {
			return fmt.Errorf("state entry %q: %w", key, err)
		}
		m.Set(key, value)
	}
	return nil
}

// maxStringLen bounds string lengths read from untrusted state data
const maxStringLen = 1 << 20

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
