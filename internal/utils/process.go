package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// InterruptExitCode is the exit status used after an interrupt.
const InterruptExitCode = 130

// CleanupOnInterruptOrKill runs cleanup and exits when the process receives
// an interrupt (Ctrl+C) or termination signal (SIGTERM). The sort itself is
// not cancellable; this only keeps chunk files from outliving the process.
//
// The returned function stops listening and must be called once the work is
// done.
func CleanupOnInterruptOrKill(cleanup func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			cleanup()
			os.Exit(InterruptExitCode)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
