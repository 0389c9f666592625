package main

import (
	"flag"
	"fmt"

	"github.com/SpotlightKid/midiomatic/pkg/ccrecorder"
	"github.com/SpotlightKid/midiomatic/pkg/framework/debug"
	"github.com/SpotlightKid/midiomatic/pkg/render"
)

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	in := fs.String("in", "", "input MIDI file")
	out := fs.String("out", "", "output MIDI file")
	configPath := fs.String("config", "", "YAML configuration file")
	statePath := fs.String("state", "", "state file to load before processing")
	saveStatePath := fs.String("save-state", "", "write the state to this file after processing")
	sendAt := fs.String("send-at", "", "comma separated frames at which to pulse the send trigger")
	clearAt := fs.String("clear-at", "", "comma separated frames at which to pulse the clear trigger")
	playAt := fs.Int64("play-at", -1, "frame at which the host transport starts, negative to keep it stopped")
	playPos := fs.Uint64("play-position", 0, "host position reported when the transport starts")
	profile := fs.Bool("profile", false, "report block processing times")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		fs.Usage()
		return fmt.Errorf("both -in and -out are required")
	}

	rec, cfg, logger, closeLog, err := setup(*configPath, *statePath)
	if err != nil {
		return err
	}
	defer closeLog()

	var pulses []render.Pulse
	for _, p := range []struct {
		list  string
		param uint32
	}{{*sendAt, ccrecorder.ParamSend}, {*clearAt, ccrecorder.ParamClear}} {
		frames, err := parseFrames(p.list)
		if err != nil {
			return err
		}
		for _, frame := range frames {
			pulses = append(pulses, render.Pulse{Frame: frame, Param: p.param})
		}
	}

	events, err := render.ReadFile(*in, cfg.SampleRate)
	if err != nil {
		return err
	}

	opts := render.Options{
		SampleRate:   cfg.SampleRate,
		BlockSize:    cfg.BlockSize,
		Pulses:       pulses,
		PlayAt:       *playAt,
		PlayPosition: *playPos,
		Busy:         rec.Busy,
		Logger:       logger,
	}
	if *profile {
		opts.Profiler = debug.NewProfiler(1024)
	}

	output, res, err := render.Run(rec, events, opts)
	if err != nil {
		return err
	}
	if err := render.WriteFile(*out, output, cfg.SampleRate); err != nil {
		return err
	}

	stats := rec.Stats()
	logger.Info("%d blocks, %d events in, %d out", res.Blocks, res.Input, res.Output)
	logger.Info("forwarded %d, suppressed %d, captured %d, dropped %d, emitted %d, program triggers %d",
		stats.Forwarded, stats.Suppressed, stats.Captured, stats.Dropped, stats.Emitted, stats.ProgramTriggers)

	if opts.Profiler != nil {
		fmt.Print(opts.Profiler.Report())
		fmt.Printf("average load: %.2f%%\n", opts.Profiler.Load("process", cfg.SampleRate, cfg.BlockSize))
	}

	if *saveStatePath != "" {
		if err := saveState(rec, *saveStatePath); err != nil {
			return err
		}
		logger.Info("saved state to %s", *saveStatePath)
	}
	return nil
}
