package errcode

import "errors"

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Hardware plane.
	HardwareReadFailure   Code = "hardware_read_failure"
	HardwareWriteRejected Code = "hardware_write_rejected"
	NoCompatibleMode      Code = "no_compatible_mode"
	InvalidState          Code = "invalid_state"
	ValidationFailure     Code = "validation_failure"

	// Service plane.
	Unsupported      Code = "unsupported"
	UnknownParameter Code = "unknown_parameter"
	InvalidParams    Code = "invalid_params"
	InvalidPayload   Code = "invalid_payload"
	Timeout          Code = "timeout"

	Error Code = "error" // generic fallback
)

// E keeps the failing step and the transport cause next to the Code.
type E struct {
	C   Code
	Op  string // operation, e.g. "set_frame_size"
	Msg string // sub-step, e.g. "write bin_rows_to_merge"
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s += ": " + e.Op
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, SomeCode) match through the wrapper.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New builds an *E.
func New(c Code, op, msg string, cause error) *E {
	return &E{C: c, Op: op, Msg: msg, Err: cause}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}
