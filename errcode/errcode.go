package errcode

import "errors"

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params"
	InvalidConfig Code = "invalid_config"
	Timeout       Code = "timeout"

	// Modem session
	HandshakeFailed Code = "handshake_failed"
	SimNotFound     Code = "sim_not_found"
	ConnectTimeout  Code = "connect_timeout"
	NotPowered      Code = "not_powered"

	// SMS submission
	SendFailed     Code = "send_failed"
	SMSDisabled    Code = "sms_disabled"
	QuotaExhausted Code = "quota_exhausted"

	// Persistence
	StorageFailed Code = "storage_failed"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the operation that produced it and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += " (" + e.Err.Error() + ")"
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap returns an *E for op carrying code c and cause err.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// Has reports whether any error in err's tree carries code c.
func Has(err error, c Code) bool {
	if err == nil {
		return false
	}
	if Of(err) == c {
		return true
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			if Has(e, c) {
				return true
			}
		}
	}
	return false
}
