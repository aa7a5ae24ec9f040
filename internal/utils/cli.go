package utils

import (
	"fmt"
	"path/filepath"
)

// HandleCLIInputs returns the input file named on the command line. ok is
// false when no file was given, in which case the caller prints Usage and
// exits cleanly. Arguments after the first are ignored.
func HandleCLIInputs(args []string) (path string, ok bool) {
	if len(args) < 2 {
		return "", false
	}
	return args[1], true
}

// Usage is the one-line usage message for the program at argv0.
func Usage(argv0 string) string {
	return fmt.Sprintf("Usage: %s FILE", filepath.Base(argv0))
}
