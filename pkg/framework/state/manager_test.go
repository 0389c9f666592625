package state

import (
	"bytes"
	"testing"

	"github.com/SpotlightKid/midiomatic/pkg/framework/param"
)

type testStore struct {
	values map[string]string
}

func (s *testStore) get(key string) string {
	return s.values[key]
}

func (s *testStore) set(key, value string) {
	s.values[key] = value
}

func newTestManager() (*Manager, *param.Registry, *testStore) {
	registry := param.NewRegistry()
	registry.Add(
		param.New(0, "Record").Toggle().Build(),
		param.New(1, "Send").Trigger().Build(),
		param.TimeParameter(2, "Interval", 1, 200, 1).Build(),
	)

	store := &testStore{values: map[string]string{}}
	m := NewManager(registry)
	m.Declare("ch-00", "false")
	m.Declare("ch-01", "false")
	m.Bind(store.get, store.set)
	return m, registry, store
}

func TestManagerDeclare(t *testing.T) {
	m := NewManager(param.NewRegistry())
	m.Declare("a", "1")
	m.Declare("b", "2")
	m.Declare("a", "3")

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Unexpected keys %v", keys)
	}

	// Unbound manager reports defaults
	if got := m.Get("a"); got != "3" {
		t.Errorf("Expected default '3', got %q", got)
	}
	if _, ok := m.Default("c"); ok {
		t.Error("Undeclared key should have no default")
	}
	if m.Set("a", "x") {
		t.Error("Set should fail while unbound")
	}
}

func TestManagerSaveLoad(t *testing.T) {
	src, srcParams, srcStore := newTestManager()
	srcParams.SetPlain(0, 1)
	srcParams.SetPlain(1, 1)
	srcParams.SetPlain(2, 25)
	srcStore.values["ch-00"] = "AAEC"
	srcStore.values["ch-01"] = "false"

	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dst, dstParams, dstStore := newTestManager()
	if err := dst.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !dstParams.Get(0).IsOn() {
		t.Error("Expected record toggle restored")
	}
	if dstParams.Get(1).IsOn() {
		t.Error("Trigger parameters must not be restored")
	}
	if got := dstParams.Get(2).IntValue(); got != 25 {
		t.Errorf("Expected interval 25, got %d", got)
	}
	if got := dstStore.values["ch-00"]; got != "AAEC" {
		t.Errorf("Expected ch-00 'AAEC', got %q", got)
	}
	if got := dstStore.values["ch-01"]; got != "false" {
		t.Errorf("Expected ch-01 'false', got %q", got)
	}
}

func TestManagerLoadErrors(t *testing.T) {
	t.Run("BadMagic", func(t *testing.T) {
		m, _, _ := newTestManager()
		if err := m.Load(bytes.NewReader([]byte("NOTMID\x01\x00\x00\x00"))); err == nil {
			t.Error("Expected error for invalid header")
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		src, _, _ := newTestManager()
		var buf bytes.Buffer
		src.Save(&buf)

		m, _, _ := newTestManager()
		truncated := buf.Bytes()[:buf.Len()-3]
		if err := m.Load(bytes.NewReader(truncated)); err == nil {
			t.Error("Expected error for truncated state")
		}
	})

	t.Run("UnknownKeysIgnored", func(t *testing.T) {
		src := NewManager(param.NewRegistry())
		src.Declare("other", "x")
		store := &testStore{values: map[string]string{"other": "y"}}
		src.Bind(store.get, store.set)

		var buf bytes.Buffer
		if err := src.Save(&buf); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		m, _, dstStore := newTestManager()
		if err := m.Load(&buf); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if _, exists := dstStore.values["other"]; exists {
			t.Error("Unknown key should not be applied")
		}
	})
}
