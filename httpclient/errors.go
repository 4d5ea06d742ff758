package httpclient

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrorType classifies client faults.
type ErrorType string

const (
	// ConnectivityError means the API host could not be reached
	ConnectivityError ErrorType = "connectivity"
	// CredentialError means no branch key or app key is configured
	CredentialError ErrorType = "credential"
	// ServerError means the API answered with a 5xx status
	ServerError ErrorType = "server"
	// IOError covers every other transport failure
	IOError ErrorType = "io"
	// ParseError means the returned line was neither a JSON object nor an array
	ParseError ErrorType = "parse"
)

// ClientError is a classified fault. Status is the envelope status it maps to.
type ClientError interface {
	error
	Type() ErrorType
	Status() int
}

type connectivityError struct {
	message string
	err     error
}

func (e *connectivityError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("connectivity error: %s: %v", e.message, e.err)
	}
	return "connectivity error: " + e.message
}
func (e *connectivityError) Unwrap() error   { return e.err }
func (e *connectivityError) Type() ErrorType { return ConnectivityError }
func (e *connectivityError) Status() int     { return StatusNoConnectivity }

type credentialError struct {
	message string
}

func (e *credentialError) Error() string   { return "credential error: " + e.message }
func (e *credentialError) Type() ErrorType { return CredentialError }
func (e *credentialError) Status() int     { return StatusNoBranchKey }

type serverError struct {
	message string
	status  int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: %s (status %d)", e.message, e.status)
}
func (e *serverError) Type() ErrorType { return ServerError }
func (e *serverError) Status() int     { return e.status }

type ioError struct {
	message string
	err     error
}

func (e *ioError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("io error: %s: %v", e.message, e.err)
	}
	return "io error: " + e.message
}
func (e *ioError) Unwrap() error   { return e.err }
func (e *ioError) Type() ErrorType { return IOError }
func (e *ioError) Status() int     { return StatusIOFailure }

type parseError struct {
	line string
	err  error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("parse error: %q is neither a JSON object nor an array: %v", e.line, e.err)
}
func (e *parseError) Unwrap() error   { return e.err }
func (e *parseError) Type() ErrorType { return ParseError }

// Status is zero because a parse failure never changes the envelope status.
func (e *parseError) Status() int { return 0 }

// NewConnectivityError creates a fault that maps to StatusNoConnectivity
func NewConnectivityError(message string, err error) ClientError {
	return &connectivityError{message: message, err: err}
}

// NewCredentialError creates a fault that maps to StatusNoBranchKey
func NewCredentialError(message string) ClientError {
	return &credentialError{message: message}
}

// NewServerError creates a fault for a 5xx response
func NewServerError(message string, status int) ClientError {
	return &serverError{message: message, status: status}
}

// NewIOError creates a fault that maps to StatusIOFailure
func NewIOError(message string, err error) ClientError {
	return &ioError{message: message, err: err}
}

// NewParseError creates a fault for an undecodable response line
func NewParseError(line string, err error) ClientError {
	return &parseError{line: line, err: err}
}

// IsErrorType reports whether err is a ClientError of the given type.
func IsErrorType(err error, errorType ErrorType) bool {
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.Type() == errorType
	}
	return false
}

// StatusFor returns the envelope status err maps to. Unclassified errors map
// to StatusIOFailure.
func StatusFor(err error) int {
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.Status()
	}
	return StatusIOFailure
}

var connectivityErrnos = []syscall.Errno{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.ENETUNREACH,
	syscall.EHOSTUNREACH,
	syscall.EPIPE,
}

// classifyTransportError maps a failed attempt to a ClientError. Timeouts are
// I/O failures even when they happen while dialing.
func classifyTransportError(err error) ClientError {
	var ce ClientError
	if errors.As(err, &ce) {
		return ce
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewConnectivityError("host lookup failed", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewIOError("timeout", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return NewConnectivityError("connect failed", err)
	}

	for _, errno := range connectivityErrnos {
		if errors.Is(err, errno) {
			return NewConnectivityError("connection lost", err)
		}
	}

	return NewIOError("request failed", err)
}
