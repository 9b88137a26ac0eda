package observability

import (
	"fmt"
	"os"
	"syscall"
)

// withFileLock runs fn while holding an exclusive advisory lock on f. The
// dashboard, one-shot commands and the MCP server may append to the same
// event log from separate processes.
func withFileLock(f *os.File, fn func() error) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquiring event log lock: %w", err)
	}
	fnErr := fn()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil && fnErr == nil {
		return fmt.Errorf("releasing event log lock: %w", err)
	}
	return fnErr
}
