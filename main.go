package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/elankath/go-memwatch/api"
	"github.com/elankath/go-memwatch/cli"
	"github.com/elankath/go-memwatch/core"
	"github.com/google/uuid"
)

func main() {
	var mainOpts cli.MainOpts

	rootCmd := cli.NewRootCommand(&mainOpts, launch)
	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, api.ErrSpawnChild) {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to start process: %v\n", err)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "Err: %v\n", err)
		}
		os.Exit(cli.ExitCodeFor(err))
	}
}

func launch(mainOpts *cli.MainOpts) error {
	runID := uuid.NewString()
	level := slog.LevelWarn
	if mainOpts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With("run", runID)
	slog.SetDefault(logger)

	cfg := mainOpts.SupervisorConfig()
	opts := []core.Option{core.WithLogger(logger)}

	var recorder *core.MemoryChartRecorder
	if cfg.ReportDir != "" {
		var err error
		recorder, err = core.NewMemoryChartRecorder(cfg, runID)
		if err != nil {
			logger.Warn("Memory chart disabled", "reportDir", cfg.ReportDir, "error", err)
		} else {
			opts = append(opts, core.WithObserver(recorder))
		}
	}

	supervisor, err := core.NewSupervisor(cfg, opts...)
	if err != nil {
		return err
	}
	outcome, err := supervisor.Run()
	if recorder != nil {
		if reportErr := recorder.WriteReport(); reportErr != nil {
			logger.Warn("Failed to write memory chart", "error", reportErr)
		}
	}
	if err != nil {
		return err
	}
	logger.Debug("Supervisor finished", "outcome", outcome.Kind, "status", outcome.Status, "statusKnown", outcome.StatusKnown)
	return nil
}
