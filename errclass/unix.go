//go:build unix

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/unix.go
//

package errclass

import (
	"errors"

	"golang.org/x/sys/unix"
)

const (
	errEADDRNOTAVAIL   = unix.EADDRNOTAVAIL
	errEADDRINUSE      = unix.EADDRINUSE
	errECONNABORTED    = unix.ECONNABORTED
	errECONNREFUSED    = unix.ECONNREFUSED
	errECONNRESET      = unix.ECONNRESET
	errEHOSTUNREACH    = unix.EHOSTUNREACH
	errEINVAL          = unix.EINVAL
	errEINTR           = unix.EINTR
	errENETDOWN        = unix.ENETDOWN
	errENETUNREACH     = unix.ENETUNREACH
	errENOBUFS         = unix.ENOBUFS
	errENOTCONN        = unix.ENOTCONN
	errEPROTONOSUPPORT = unix.EPROTONOSUPPORT
	errETIMEDOUT       = unix.ETIMEDOUT
	errEMSGSIZE        = unix.EMSGSIZE
)

// classifyErrno matches err against the unix errno table.
func classifyErrno(err error) (string, bool) {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return "", false
	}
	switch errno {
	case errEADDRNOTAVAIL:
		return "EADDRNOTAVAIL", true
	case errEADDRINUSE:
		return "EADDRINUSE", true
	case errECONNABORTED:
		return "ECONNABORTED", true
	case errECONNREFUSED:
		return "ECONNREFUSED", true
	case errECONNRESET:
		return "ECONNRESET", true
	case errEHOSTUNREACH:
		return "EHOSTUNREACH", true
	case errEINVAL:
		return "EINVAL", true
	case errEINTR:
		return "EINTR", true
	case errENETDOWN:
		return "ENETDOWN", true
	case errENETUNREACH:
		return "ENETUNREACH", true
	case errENOBUFS:
		return "ENOBUFS", true
	case errENOTCONN:
		return "ENOTCONN", true
	case errEPROTONOSUPPORT:
		return "EPROTONOSUPPORT", true
	case errETIMEDOUT:
		return "ETIMEDOUT", true
	case errEMSGSIZE:
		return "EMSGSIZE", true
	}
	return "", false
}
