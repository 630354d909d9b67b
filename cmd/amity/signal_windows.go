//go:build windows

package main

import (
	"os"
)

// terminationSignals are the signals that start a graceful shutdown.
// On Windows only os.Interrupt (Ctrl+C) is delivered.
var terminationSignals = []os.Signal{os.Interrupt}
