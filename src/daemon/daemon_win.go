//go:build windows

package daemon

import "syscall"

// StopSignals contains all the signals which will make our daemon shut down
// cleanly.
var StopSignals = []syscall.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
