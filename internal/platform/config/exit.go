package config

import (
	"fmt"
	"os"
)

// Exitf reports a fatal startup or probe failure on stderr and exits with
// status 1. Container probes read the status; operators read the line.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
