package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/elankath/go-memwatch/api"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess int = iota
	ExitSpawnChild
	ExitOptsParseErr
	ExitMissingArgs
	ExitWaitChild
	ExitSignalChild
	ExitGeneral = 255
)

type MainOpts struct {
	ThresholdGB      uint64
	Interval         time.Duration
	ReportDir        string
	ReportNamePrefix string
	Verbose          bool
	Command          []string
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func ValidateMainOpts(mainOpts *MainOpts) (exitCode int, err error) {
	if len(mainOpts.Command) == 0 || mainOpts.Command[0] == "" {
		return ExitMissingArgs, errors.New("command arg is mandatory")
	}
	if mainOpts.Interval <= 0 {
		return ExitOptsParseErr, fmt.Errorf("interval must be positive, got %s", mainOpts.Interval)
	}
	return ExitSuccess, nil
}

func SetupMainFlagsToOpts(mainFlags *pflag.FlagSet, mainOpts *MainOpts) {
	mainFlags.SetInterspersed(false)
	mainFlags.Uint64VarP(&mainOpts.ThresholdGB, "threshold", "g", api.DefaultThresholdGB, "Free memory threshold in gigabytes")
	mainFlags.DurationVar(&mainOpts.Interval, "interval", api.DefaultInterval, "Free memory polling interval")
	mainFlags.StringVar(&mainOpts.ReportDir, "report-dir", "", "Directory for a free memory chart of the run (disabled when empty)")
	mainFlags.StringVar(&mainOpts.ReportNamePrefix, "report-prefix", api.DefaultReportNamePrefix, "File name prefix of the free memory chart")
	mainFlags.BoolVarP(&mainOpts.Verbose, "verbose", "v", false, "Enable debug logging")
}

func (o *MainOpts) SupervisorConfig() api.SupervisorConfig {
	return api.SupervisorConfig{
		ThresholdGB:      o.ThresholdGB,
		Command:          o.Command,
		Interval:         o.Interval,
		ReportDir:        o.ReportDir,
		ReportNamePrefix: o.ReportNamePrefix,
	}
}

// NewRootCommand binds the flags to mainOpts. Every token after the first
// positional argument is handed to the child verbatim, flags included.
func NewRootCommand(mainOpts *MainOpts, run func(mainOpts *MainOpts) error) *cobra.Command {
	root := &cobra.Command{
		Use:   "memwatch [flags] <command> [args...]",
		Short: "Runs a command and ends it if free memory goes below a threshold.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mainOpts.Command = args
			exitCode, err := ValidateMainOpts(mainOpts)
			if err != nil {
				_ = cmd.Usage()
				return &ExitError{Code: exitCode, Err: err}
			}
			return run(mainOpts)
		},
	}
	SetupMainFlagsToOpts(root.Flags(), mainOpts)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return &ExitError{Code: ExitOptsParseErr, Err: err}
	})
	root.SilenceUsage = true
	root.SilenceErrors = true
	return root
}

// ExitCodeFor maps an error returned by the root command to an exit code.
func ExitCodeFor(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, api.ErrSpawnChild):
		return ExitSpawnChild
	case errors.Is(err, api.ErrInvalidConfig):
		return ExitOptsParseErr
	case errors.Is(err, api.ErrWaitChild):
		return ExitWaitChild
	case errors.Is(err, api.ErrSignalChild):
		return ExitSignalChild
	default:
		return ExitGeneral
	}
}
