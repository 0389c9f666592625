// Command ccrecorder records MIDI Control Change values and sends them back
// on demand, either offline over a Standard MIDI File or live between MIDI
// ports.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/SpotlightKid/midiomatic/pkg/ccrecorder"
	"github.com/SpotlightKid/midiomatic/pkg/config"
	"github.com/SpotlightKid/midiomatic/pkg/framework/debug"
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"render", "process a MIDI file offline", runRender},
	{"live", "run between a MIDI input and a virtual output", runLive},
	{"ports", "list MIDI ports", runPorts},
	{"dump", "show the contents of a state file", runDump},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if err := cmd.run(os.Args[2:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				os.Exit(2)
			}
			fmt.Fprintf(os.Stderr, "ccrecorder %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}

	if name != "help" && name != "-h" && name != "--help" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	}
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, ccrecorder.Info.String())
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage: ccrecorder <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", cmd.name, cmd.usage)
	}
}

// setup loads the configuration and builds a recorder with the configured
// parameter values and the state from statePath, if given.
func setup(configPath, statePath string) (*ccrecorder.Recorder, *config.Config, *debug.Logger, func() error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger, closeLog, err := cfg.Logger("ccrecorder")
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening log: %w", err)
	}

	rec := ccrecorder.New()
	rec.SetLogger(logger)
	if statePath != "" {
		if err := loadState(rec, statePath); err != nil {
			closeLog()
			return nil, nil, nil, nil, err
		}
		logger.Info("loaded state from %s", statePath)
	}
	if err := cfg.Apply(rec.GetParameters()); err != nil {
		closeLog()
		return nil, nil, nil, nil, err
	}
	return rec, cfg, logger, closeLog, nil
}

func loadState(rec *ccrecorder.Recorder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening state: %w", err)
	}
	defer f.Close()
	if err := rec.StateManager().Load(f); err != nil {
		return fmt.Errorf("loading state %s: %w", path, err)
	}
	return nil
}

func saveState(rec *ccrecorder.Recorder, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating state: %w", err)
	}
	if err := rec.StateManager().Save(f); err != nil {
		f.Close()
		return fmt.Errorf("saving state %s: %w", path, err)
	}
	return f.Close()
}

// parseFrames parses a comma separated list of frame positions.
func parseFrames(list string) ([]uint64, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var frames []uint64
	for _, field := range strings.Split(list, ",") {
		frame, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid frame %q", field)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
