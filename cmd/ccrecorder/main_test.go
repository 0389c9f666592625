package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SpotlightKid/midiomatic/pkg/ccrecorder"
	"github.com/SpotlightKid/midiomatic/pkg/midi"
	"github.com/SpotlightKid/midiomatic/pkg/render"
)

func TestParseFrames(t *testing.T) {
	frames, err := parseFrames(" 0, 4800 ,96000")
	if err != nil {
		t.Fatalf("parseFrames failed: %v", err)
	}
	expected := []uint64{0, 4800, 96000}
	if len(frames) != len(expected) {
		t.Fatalf("Expected %d frames, got %d", len(expected), len(frames))
	}
	for i := range expected {
		if frames[i] != expected[i] {
			t.Errorf("Frame %d: expected %d, got %d", i, expected[i], frames[i])
		}
	}

	if frames, err := parseFrames(""); err != nil || frames != nil {
		t.Errorf("Expected no frames for empty list, got %v, %v", frames, err)
	}
	if _, err := parseFrames("12,abc"); err == nil {
		t.Error("Expected error for invalid frame")
	}
}

func TestFormatState(t *testing.T) {
	rec := ccrecorder.New()
	rec.GetParameters().SetPlain(ccrecorder.ParamRecord, 1)
	rec.Capture(0, 7, 100)
	rec.Capture(2, 1, 5)

	out := formatState(rec)
	for _, want := range []string{"MIDI CC Recorder", "Ch 1", "7=100", "Ch 3", "1=5"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Ch 2 ") {
		t.Errorf("Expected channel 2 to be omitted:\n%s", out)
	}

	empty := formatState(ccrecorder.New())
	if !strings.Contains(empty, "no values captured") {
		t.Errorf("Expected empty notice, got:\n%s", empty)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mid")
	out := filepath.Join(dir, "out.mid")
	cfgPath := filepath.Join(dir, "config.yaml")
	statePath := filepath.Join(dir, "state.bin")

	cfg := "log_level: \"off\"\nsample_rate: 48000\nblock_size: 256\nparameters:\n  rec_enable: \"on\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	input := []render.TimedEvent{{Frame: 0, Event: midi.NewControlChange(0, 0, 7, 100)}}
	if err := render.WriteFile(in, input, 48000); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	args := []string{"-in", in, "-out", out, "-config", cfgPath, "-send-at", "4800", "-save-state", statePath}
	if err := runRender(args); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	output, err := render.ReadFile(out, 48000)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	// The forwarded input and the sent value
	if len(output) != 2 {
		t.Fatalf("Expected 2 output events, got %d", len(output))
	}

	rec := ccrecorder.New()
	if err := loadState(rec, statePath); err != nil {
		t.Fatalf("loadState failed: %v", err)
	}
	if got := rec.Read(0, 7); got != 100 {
		t.Errorf("Expected saved value 100, got %d", got)
	}
	if !rec.GetParameters().Get(ccrecorder.ParamRecord).IsOn() {
		t.Error("Expected record toggle saved")
	}
}

func TestRenderCommandErrors(t *testing.T) {
	if err := runRender(nil); err == nil {
		t.Error("Expected error without -in and -out")
	}
	if err := runRender([]string{"-in", "missing.mid", "-out", filepath.Join(t.TempDir(), "x.mid"), "-send-at", "x"}); err == nil {
		t.Error("Expected error for invalid -send-at")
	}
}
