// Command csv2jsonl converts CSV to JSON Lines.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// A closed stdout then surfaces as EPIPE from Write instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	code := exitCode(cmd.ExecuteContext(ctx), os.Stderr)
	stop()
	os.Exit(code)
}

// exitCode reports err on stderr and maps it to the process status.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, syscall.EPIPE):
		// Downstream closed the pipe, e.g. `csv2jsonl big.csv | head`.
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}
