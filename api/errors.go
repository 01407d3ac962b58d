package api

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid supervisor config")
	ErrSpawnChild    = errors.New("cannot start child process")

	ErrWaitChild   = errors.New("cannot wait for child process")
	ErrSignalChild = errors.New("cannot signal child process")

	ErrSampleMemory = errors.New("cannot sample free memory")
	ErrWriteReport  = errors.New("cannot write memory report")
)
