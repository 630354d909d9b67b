//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals are the signals that start a graceful shutdown.
// Process managers such as systemd and kubernetes send SIGTERM.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
