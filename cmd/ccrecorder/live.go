package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/SpotlightKid/midiomatic/pkg/ccrecorder"
	"github.com/SpotlightKid/midiomatic/pkg/host"
)

func runLive(args []string) error {
	fs := flag.NewFlagSet("live", flag.ContinueOnError)
	in := fs.String("in", "", "input port name or a unique part of it")
	out := fs.String("out", ccrecorder.Info.Name, "name of the virtual output port")
	configPath := fs.String("config", "", "YAML configuration file")
	statePath := fs.String("state", "", "state file to load on start")
	saveStatePath := fs.String("save-state", "", "write the state to this file on exit")
	play := fs.Bool("play", false, "report a running host transport from the start")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return fmt.Errorf("-in is required")
	}

	rec, cfg, logger, closeLog, err := setup(*configPath, *statePath)
	if err != nil {
		return err
	}
	defer closeLog()

	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("creating MIDI driver: %w", err)
	}
	defer drv.Close()

	input, err := findInput(drv, *in)
	if err != nil {
		return err
	}
	output, err := drv.OpenVirtualOut(*out)
	if err != nil {
		return fmt.Errorf("creating virtual output %q: %w", *out, err)
	}
	defer output.Close()
	send, err := gomidi.SendTo(output)
	if err != nil {
		return fmt.Errorf("opening sender: %w", err)
	}

	live, err := host.NewLive(rec, host.Config{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
	}, send, logger)
	if err != nil {
		return err
	}
	live.SetPlaying(*play)

	stop, err := gomidi.ListenTo(input, func(msg gomidi.Message, timestampms int32) {
		live.Receive(msg)
	}, gomidi.UseSysEx())
	if err != nil {
		return fmt.Errorf("listening to %s: %w", input, err)
	}
	defer stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// SIGUSR1 sends the captured values, SIGUSR2 clears them
	triggers := make(chan os.Signal, 1)
	signal.Notify(triggers, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(triggers)
	go func() {
		for {
			select {
			case sig := <-triggers:
				if sig == syscall.SIGUSR1 {
					live.Pulse(ccrecorder.ParamSend)
				} else {
					live.Pulse(ccrecorder.ParamClear)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("%s: %s -> %s", ccrecorder.Info, input, *out)
	fmt.Println("Press Ctrl+C to stop...")
	if err := live.Run(ctx); err != nil {
		return err
	}

	stats := rec.Stats()
	logger.Info("forwarded %d, captured %d, emitted %d, dropped %d", stats.Forwarded, stats.Captured, stats.Emitted, stats.Dropped+live.Dropped())

	if *saveStatePath != "" {
		if err := saveState(rec, *saveStatePath); err != nil {
			return err
		}
		logger.Info("saved state to %s", *saveStatePath)
	}
	return nil
}

// findInput returns the input port named name, or the only port whose name
// contains it.
func findInput(drv *rtmididrv.Driver, name string) (drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI inputs: %w", err)
	}

	var matches []drivers.In
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			matches = append(matches, in)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("input port not found: %s", name)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("input port %q is ambiguous (%d matches)", name, len(matches))
	}
}

func runPorts(args []string) error {
	fs := flag.NewFlagSet("ports", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("creating MIDI driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		return fmt.Errorf("listing MIDI outputs: %w", err)
	}

	fmt.Println("Inputs:")
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("Outputs:")
	for i, p := range outs {
		fmt.Printf("  %d: %s\n", i, p)
	}
	return nil
}
