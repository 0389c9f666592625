package host

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/SpotlightKid/midiomatic/pkg/ccrecorder"
	"github.com/SpotlightKid/midiomatic/pkg/framework/debug"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []gomidi.Message
	err  error
}

func (f *fakeSender) send(msg gomidi.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, append(gomidi.Message(nil), msg...))
	return nil
}

func (f *fakeSender) messages() []gomidi.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gomidi.Message(nil), f.sent...)
}

func newTestLive(t *testing.T, cfg Config) (*Live, *ccrecorder.Recorder, *fakeSender, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := debug.New(&logs, "host", debug.FlagLevel)
	rec := ccrecorder.New()
	rec.SetLogger(logger)
	sender := &fakeSender{}
	live, err := NewLive(rec, cfg, sender.send, logger)
	if err != nil {
		t.Fatalf("NewLive failed: %v", err)
	}
	return live, rec, sender, &logs
}

func TestNewLiveErrors(t *testing.T) {
	sender := &fakeSender{}
	if _, err := NewLive(ccrecorder.New(), Config{SampleRate: 0, BlockSize: 64}, sender.send, nil); err == nil {
		t.Error("Expected error for zero sample rate")
	}
	if _, err := NewLive(ccrecorder.New(), Config{SampleRate: 48000, BlockSize: 0}, sender.send, nil); err == nil {
		t.Error("Expected error for zero block size")
	}
	if _, err := NewLive(ccrecorder.New(), Config{SampleRate: 48000, BlockSize: 64}, nil, nil); err == nil {
		t.Error("Expected error for missing output")
	}
}

func TestLiveBlock(t *testing.T) {
	live, rec, sender, _ := newTestLive(t, Config{SampleRate: 48000, BlockSize: 480})
	live.params.SetPlain(ccrecorder.ParamRecord, 1)

	t.Run("CaptureAndForward", func(t *testing.T) {
		live.Receive(gomidi.ControlChange(2, 7, 100))
		live.Block()

		if got := rec.Read(2, 7); got != 100 {
			t.Errorf("Expected captured value 100, got %d", got)
		}
		sent := sender.messages()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 forwarded message, got %d", len(sent))
		}
		var ch, cc, val uint8
		if !sent[0].GetControlChange(&ch, &cc, &val) || ch != 2 || cc != 7 || val != 100 {
			t.Errorf("Unexpected forwarded message %v", sent[0])
		}
	})

	t.Run("PulseSend", func(t *testing.T) {
		live.Pulse(ccrecorder.ParamSend)
		live.Block()
		// 480 frames at 48 kHz with a 1 ms interval leave room for the single cell
		sent := sender.messages()
		if len(sent) != 2 {
			t.Fatalf("Expected 2 messages, got %d", len(sent))
		}
		if rec.State() != ccrecorder.Idle {
			t.Errorf("Expected Idle after sending, got %v", rec.State())
		}

		// The trigger is released on the next block
		live.Block()
		if got := live.params.Get(ccrecorder.ParamSend).IsOn(); got {
			t.Error("Expected send trigger released")
		}
		if got := live.Blocks(); got != 3 {
			t.Errorf("Expected 3 blocks, got %d", got)
		}
	})
}

func TestLiveTransport(t *testing.T) {
	live, rec, sender, _ := newTestLive(t, Config{SampleRate: 48000, BlockSize: 64})
	live.params.SetPlain(ccrecorder.ParamRecord, 1)
	rec.Capture(0, 1, 10)
	live.params.SetPlain(ccrecorder.ParamRecord, 0)
	live.params.SetPlain(ccrecorder.ParamTransportTrigger, float64(ccrecorder.TransportAtZero))

	live.Block()
	if len(sender.messages()) != 0 {
		t.Fatal("Expected no output while stopped")
	}

	live.SetPlaying(true)
	live.Block()
	if got := len(sender.messages()); got != 1 {
		t.Errorf("Expected send on transport start at zero, got %d messages", got)
	}
	if live.position != 64 {
		t.Errorf("Expected position 64, got %d", live.position)
	}

	live.SetPlaying(false)
	live.Block()
	if live.position != 0 {
		t.Errorf("Expected position reset on stop, got %d", live.position)
	}
}

func TestLiveInputOverflow(t *testing.T) {
	live, _, _, _ := newTestLive(t, Config{SampleRate: 48000, BlockSize: 64, InputCapacity: 2})

	for i := 0; i < 3; i++ {
		live.Receive(gomidi.ControlChange(0, uint8(i), 1))
	}
	if got := live.Dropped(); got != 1 {
		t.Errorf("Expected 1 dropped message, got %d", got)
	}
}

func TestLiveSendError(t *testing.T) {
	live, _, sender, logs := newTestLive(t, Config{SampleRate: 48000, BlockSize: 64})
	sender.err = errors.New("port closed")

	live.Receive(gomidi.ControlChange(0, 1, 1))
	live.Block()
	if !bytes.Contains(logs.Bytes(), []byte("port closed")) {
		t.Errorf("Expected send error logged, got %q", logs.String())
	}
}

func TestLiveRun(t *testing.T) {
	live, rec, _, _ := newTestLive(t, Config{SampleRate: 48000, BlockSize: 48})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := live.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if live.Blocks() == 0 {
		t.Error("Expected at least one block processed")
	}
	if rec.State() != ccrecorder.Idle {
		t.Errorf("Expected Idle after shutdown, got %v", rec.State())
	}
}
