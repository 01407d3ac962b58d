package core

import (
	"fmt"

	"github.com/elankath/go-memwatch/api"
	"github.com/shirou/gopsutil/mem"
)

type virtualMemorySampler struct{}

// NewVirtualMemorySampler returns a sampler reading the host's free physical
// memory through gopsutil. Nothing is cached between calls.
func NewVirtualMemorySampler() api.MemorySampler {
	return virtualMemorySampler{}
}

func (virtualMemorySampler) FreeMemoryBytes() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", api.ErrSampleMemory, err)
	}
	return vm.Free, nil
}
