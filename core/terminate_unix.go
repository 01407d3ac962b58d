//go:build unix

package core

import (
	"fmt"

	"github.com/elankath/go-memwatch/api"
	"golang.org/x/sys/unix"
)

type signalTerminator struct{}

// NewTerminator returns the platform terminator. On POSIX systems a graceful
// termination is a SIGINT, the same as Ctrl-C at a terminal.
func NewTerminator() api.Terminator {
	return signalTerminator{}
}

func (signalTerminator) Graceful() bool {
	return true
}

func (signalTerminator) Terminate(child api.Child, graceful bool) error {
	sig := unix.SIGKILL
	if graceful {
		sig = unix.SIGINT
	}
	if err := child.Signal(sig); err != nil {
		return fmt.Errorf("%w: send %s to pid %d: %w", api.ErrSignalChild, unix.SignalName(sig), child.Pid(), err)
	}
	return nil
}
