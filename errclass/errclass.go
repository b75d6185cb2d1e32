//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/errclass.go
//

// Package errclass classifies network errors into short, platform-independent
// labels for structured logging and telemetry.
//
// The labels are stable across unix and windows even though the underlying
// syscall error values differ: unix.go and windows.go each implement
// classifyErrno against their platform's errno type and expose the same
// label strings.
package errclass

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
)

// New classifies err and returns a short label such as "ETIMEDOUT" or
// "ECONNREFUSED". It returns "" for a nil error and "unknown" for an error it
// cannot classify by kind or by wrapped syscall errno.
func New(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "ETIMEDOUT"
	case errors.Is(err, context.Canceled):
		return "ECANCELED"
	case errors.Is(err, io.EOF):
		return "EOF"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT"
	}

	if label, ok := classifyErrno(err); ok {
		return label
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return New(opErr.Err)
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && pathErr.Err != nil {
		return New(pathErr.Err)
	}

	return "unknown"
}
