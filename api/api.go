package api

import (
	"fmt"
	"math"
	"os"
	"syscall"
	"time"
)

const (
	// GiB is the number of bytes in one gigabyte as used by the threshold.
	GiB uint64 = 1024 * 1024 * 1024

	DefaultThresholdGB      uint64 = 1
	DefaultInterval                = time.Second
	DefaultReportNamePrefix        = "memwatch"
)

// Supervisor runs a single child process to completion, ending it early when
// free memory falls below the configured threshold.
type Supervisor interface {
	Run() (ExitOutcome, error)
}

type SupervisorConfig struct {
	ThresholdGB      uint64
	Command          []string
	Interval         time.Duration
	ReportDir        string
	ReportNamePrefix string
}

// ThresholdBytes converts ThresholdGB to bytes, saturating instead of
// wrapping on overflow.
func (c SupervisorConfig) ThresholdBytes() uint64 {
	if c.ThresholdGB > math.MaxUint64/GiB {
		return math.MaxUint64
	}
	return c.ThresholdGB * GiB
}

// Child is a handle to the single supervised OS process.
type Child interface {
	Pid() int
	Signal(sig os.Signal) error
	Kill() error
	// TryWait reports the exit status without blocking. exited is false while
	// the process is still running.
	TryWait() (status ExitStatus, exited bool, err error)
	// Wait blocks until the process exits.
	Wait() (ExitStatus, error)
}

// Spawner starts a child from a command vector.
type Spawner func(command []string) (Child, error)

// MemorySampler returns the free physical memory of the host in bytes. Every
// call is a fresh reading.
type MemorySampler interface {
	FreeMemoryBytes() (uint64, error)
}

// Terminator ends a child. Graceful reports whether the platform supports an
// interrupt; when it does not, Terminate always kills.
type Terminator interface {
	Terminate(child Child, graceful bool) error
	Graceful() bool
}

// SampleObserver is notified of every memory sample taken by a supervisor.
type SampleObserver interface {
	Observe(at time.Time, freeBytes uint64)
}

type ExitStatus struct {
	Code     int
	Signaled bool
	Signal   syscall.Signal
}

func (s ExitStatus) String() string {
	if s.Signaled {
		return fmt.Sprintf("signal: %d (%s)", int(s.Signal), s.Signal)
	}
	return fmt.Sprintf("%d", s.Code)
}

type OutcomeKind int

const (
	// OutcomeExited means the child ended on its own.
	OutcomeExited OutcomeKind = iota
	// OutcomeTerminated means the supervisor signalled the child.
	OutcomeTerminated
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeExited:
		return "exited"
	case OutcomeTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// ExitOutcome is the terminal result of a run. For OutcomeTerminated,
// StatusKnown is false when the final wait failed.
type ExitOutcome struct {
	Kind        OutcomeKind
	Status      ExitStatus
	StatusKnown bool
	FreeBytes   uint64
}
