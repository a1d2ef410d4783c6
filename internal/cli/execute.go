package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Execute runs the root command with os.Args and returns the process exit
// code.
func Execute() int {
	return run(NewRootCommand().Execute(), os.Stderr)
}

// run maps a command error to an exit code, printing it to stderr unless
// the command already reported it through its OutputFormatter.
func run(err error, stderr io.Writer) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return GetExitCode(err)
}
