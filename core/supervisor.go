package core

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/elankath/go-memwatch/api"
)

// Supervisor polls a single child and the host's free memory on a fixed
// interval. It is not safe for concurrent use and Run must be called once.
type Supervisor struct {
	cfg      api.SupervisorConfig
	spawn    api.Spawner
	sampler  api.MemorySampler
	term     api.Terminator
	observer api.SampleObserver
	out      io.Writer
	sleep    func(time.Duration)
	now      func() time.Time
	log      *slog.Logger
}

type Option func(*Supervisor)

func WithSpawner(spawn api.Spawner) Option {
	return func(s *Supervisor) { s.spawn = spawn }
}

func WithSampler(sampler api.MemorySampler) Option {
	return func(s *Supervisor) { s.sampler = sampler }
}

func WithTerminator(term api.Terminator) Option {
	return func(s *Supervisor) { s.term = term }
}

// WithObserver registers an observer for every memory sample.
func WithObserver(observer api.SampleObserver) Option {
	return func(s *Supervisor) { s.observer = observer }
}

// WithOutput sets where status lines are printed. Defaults to os.Stdout.
func WithOutput(out io.Writer) Option {
	return func(s *Supervisor) { s.out = out }
}

func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Supervisor) { s.sleep = sleep }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Supervisor) { s.log = log }
}

func NewSupervisor(cfg api.SupervisorConfig, opts ...Option) (*Supervisor, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("%w: command is mandatory", api.ErrInvalidConfig)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("%w: negative interval %s", api.ErrInvalidConfig, cfg.Interval)
	}
	if cfg.Interval == 0 {
		cfg.Interval = api.DefaultInterval
	}
	s := &Supervisor{
		cfg:     cfg,
		spawn:   SpawnChild,
		sampler: NewVirtualMemorySampler(),
		term:    NewTerminator(),
		out:     os.Stdout,
		sleep:   time.Sleep,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run spawns the child and supervises it until it exits or is terminated.
// A returned error means the run was aborted: the child could not be
// started, its liveness could not be checked, or it could not be killed.
func (s *Supervisor) Run() (api.ExitOutcome, error) {
	child, err := s.spawn(s.cfg.Command)
	if err != nil {
		return api.ExitOutcome{}, err
	}
	log := s.log.With("pid", child.Pid())
	threshold := s.cfg.ThresholdBytes()
	log.Debug("Child started", "command", s.cfg.Command, "thresholdBytes", threshold, "interval", s.cfg.Interval)

	for {
		status, exited, err := child.TryWait()
		if err != nil {
			return api.ExitOutcome{}, err
		}
		if exited {
			_, _ = fmt.Fprintf(s.out, "Child exited with status: %s\n", status)
			s.finalWait(child, log)
			return api.ExitOutcome{Kind: api.OutcomeExited, Status: status, StatusKnown: true}, nil
		}

		free, err := s.sampler.FreeMemoryBytes()
		if err != nil {
			log.Warn("Skipping memory check", "error", err)
		} else {
			if s.observer != nil {
				s.observer.Observe(s.now(), free)
			}
			log.Debug("Sampled free memory", "freeBytes", free, "thresholdBytes", threshold)
			if free < threshold {
				return s.terminate(child, free, log)
			}
		}
		s.sleep(s.cfg.Interval)
	}
}

func (s *Supervisor) terminate(child api.Child, free uint64, log *slog.Logger) (api.ExitOutcome, error) {
	outcome := api.ExitOutcome{Kind: api.OutcomeTerminated, FreeBytes: free}
	action := "Sending SIGINT to the child"
	if !s.term.Graceful() {
		action = "Killing the child"
	}
	_, _ = fmt.Fprintf(s.out, "Free memory below %d GB. %s\n", s.cfg.ThresholdGB, action)

	if err := s.term.Terminate(child, true); err != nil {
		if !s.term.Graceful() {
			return outcome, err
		}
		// the child may already be gone; the wait below still collects it
		log.Warn("Failed to interrupt child", "error", err)
	}

	status, ok := s.finalWait(child, log)
	if !ok {
		return outcome, nil
	}
	outcome.Status, outcome.StatusKnown = status, true
	_, _ = fmt.Fprintf(s.out, "Child terminated with status: %s\n", status)
	return outcome, nil
}

// finalWait blocks without a timeout until the child is collected.
func (s *Supervisor) finalWait(child api.Child, log *slog.Logger) (api.ExitStatus, bool) {
	status, err := child.Wait()
	if err != nil {
		log.Warn("Error waiting for child process", "error", err)
		return status, false
	}
	return status, true
}

var _ api.Supervisor = (*Supervisor)(nil)
