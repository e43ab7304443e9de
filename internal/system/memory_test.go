package system

import "testing"

func TestAvailableMemory(t *testing.T) {
	got := AvailableMemory()
	if got == 0 {
		t.Error("AvailableMemory should never report zero")
	}
	t.Logf("Available memory: %d bytes", got)
}
