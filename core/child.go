package core

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/elankath/go-memwatch/api"
)

// execChild is an api.Child backed by os/exec. The process is reaped by a
// single goroutine and the result is published by closing done.
type execChild struct {
	cmd    *exec.Cmd
	done   chan struct{}
	status api.ExitStatus
	err    error
}

// SpawnChild starts command with stdin on the null device and stdout/stderr
// inherited from the current process.
func SpawnChild(command []string) (api.Child, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("%w: empty command", api.ErrSpawnChild)
	}
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", api.ErrSpawnChild, command[0], err)
	}
	c := &execChild{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go c.reap()
	return c, nil
}

func (c *execChild) reap() {
	defer close(c.done)
	err := c.cmd.Wait()
	if c.cmd.ProcessState == nil {
		c.err = err
		return
	}
	c.status = exitStatusOf(c.cmd.ProcessState)
}

func (c *execChild) Pid() int {
	return c.cmd.Process.Pid
}

func (c *execChild) Signal(sig os.Signal) error {
	return c.cmd.Process.Signal(sig)
}

func (c *execChild) Kill() error {
	return c.cmd.Process.Kill()
}

func (c *execChild) TryWait() (status api.ExitStatus, exited bool, err error) {
	select {
	case <-c.done:
		if c.err != nil {
			err = c.waitErr()
			return
		}
		return c.status, true, nil
	default:
		return
	}
}

func (c *execChild) Wait() (api.ExitStatus, error) {
	<-c.done
	if c.err != nil {
		return api.ExitStatus{}, c.waitErr()
	}
	return c.status, nil
}

func (c *execChild) waitErr() error {
	return fmt.Errorf("%w: pid %d: %w", api.ErrWaitChild, c.Pid(), c.err)
}

func exitStatusOf(state *os.ProcessState) api.ExitStatus {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return api.ExitStatus{Code: -1, Signaled: true, Signal: ws.Signal()}
	}
	return api.ExitStatus{Code: state.ExitCode()}
}

var _ api.Child = (*execChild)(nil)
