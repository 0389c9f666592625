package ccrecorder

import (
	"encoding/base64"
	"testing"
)

func TestStateKeys(t *testing.T) {
	if got := StateKey(0); got != "ch-00" {
		t.Errorf("Expected ch-00, got %s", got)
	}
	if got := StateKey(15); got != "ch-15" {
		t.Errorf("Expected ch-15, got %s", got)
	}

	tests := []struct {
		key string
		ch  int
		ok  bool
	}{
		{"ch-00", 0, true},
		{"ch-09", 9, true},
		{"ch-15", 15, true},
		{"ch-3", 3, true},
		{"ch-16", 0, false},
		{"ch--1", 0, false},
		{"ch-", 0, false},
		{"ch-xx", 0, false},
		{"ch-1a", 0, false},
		{"cc-01", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		ch, ok := ParseStateKey(tt.key)
		if ok != tt.ok || ch != tt.ch {
			t.Errorf("ParseStateKey(%q) = (%d, %v), want (%d, %v)", tt.key, ch, ok, tt.ch, tt.ok)
		}
	}
}

func TestExportImport(t *testing.T) {
	src := NewTable()
	src.Set(2, 0, 0)
	src.Set(2, 7, 100)
	src.Set(2, 127, 127)

	blob := Export(src, 2)

	dst := &Table{}
	if !Import(dst, 2, blob) {
		t.Fatal("Import rejected exported blob")
	}
	if dst[2] != src[2] {
		t.Error("Row differs after round trip")
	}
	if dst[2][1] != Sentinel {
		t.Errorf("Expected sentinel preserved, got %d", dst[2][1])
	}
	if Export(src, 16) != NoState {
		t.Error("Expected NoState for invalid channel")
	}
}

func TestImportShortBlob(t *testing.T) {
	table := NewTable()
	table.Set(0, 10, 55)

	blob := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	if !Import(table, 0, blob) {
		t.Fatal("Import rejected short blob")
	}

	for cc, want := range []byte{1, 2, 3} {
		if v := table.Read(0, cc); v != want {
			t.Errorf("Controller %d: expected %d, got %d", cc, want, v)
		}
	}
	if v := table.Read(0, 10); v != 55 {
		t.Errorf("Expected untouched cell 55, got %d", v)
	}
	if v := table.Read(0, 3); v != Sentinel {
		t.Errorf("Expected untouched sentinel, got %d", v)
	}
}

func TestImportRejects(t *testing.T) {
	for _, blob := range []string{NoState, "", "not base64!", "===="} {
		table := NewTable()
		table.Set(1, 1, 9)
		if Import(table, 1, blob) {
			t.Errorf("Import(%q) should fail", blob)
		}
		if v := table.Read(1, 1); v != 9 {
			t.Errorf("Import(%q) modified the row", blob)
		}
	}
}
