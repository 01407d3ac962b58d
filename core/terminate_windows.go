//go:build windows

package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/elankath/go-memwatch/api"
)

type killTerminator struct{}

// NewTerminator returns the platform terminator. Windows has no interrupt that
// can be delivered to an arbitrary child, so the child is always killed.
func NewTerminator() api.Terminator {
	return killTerminator{}
}

func (killTerminator) Graceful() bool {
	return false
}

func (killTerminator) Terminate(child api.Child, _ bool) error {
	if err := child.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("%w: kill pid %d: %w", api.ErrSignalChild, child.Pid(), err)
	}
	return nil
}
