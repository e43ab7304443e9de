package system

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultAvailableMemory is assumed when the platform probe fails.
const DefaultAvailableMemory = 512 << 20

// AvailableMemory reports the bytes of memory currently available to the
// process, falling back to a conservative constant when probing fails.
func AvailableMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Available == 0 {
		return DefaultAvailableMemory
	}
	return vm.Available
}
