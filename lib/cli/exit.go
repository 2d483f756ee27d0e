// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
)

// ExitError signals a non-zero exit code without printing an extra
// message; the command has already written its own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Exit reports err on stderr the way every archive command does and
// returns the process exit code. nil is success. An [ExitError] exits
// silently; any other error is printed as "error: <message>" and
// exits with its ExitCode, or 1.
func Exit(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var silent *ExitError
	if errors.As(err, &silent) {
		return silent.Code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
