// Package counters keeps the device's durable counters (boot count and SMS
// sent) in a tiny byte-addressed medium.
//
// The store degrades instead of failing: the first commit error latches the
// store into StatusFailed for the rest of the powered episode, after which
// every read returns 0 and every write is a no-op.
package counters

import (
	"io"
	"log"

	"leakguard-go/errcode"
	"leakguard-go/types"
)

// Status is the latched health of the store.
type Status uint8

const (
	StatusHealthy Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusFailed {
		return "failed"
	}
	return "healthy"
}

// Store owns the medium. Not safe for concurrent use; the control loop is
// its only caller.
type Store struct {
	m      Medium
	log    *log.Logger
	status Status
	cause  error
}

// Option tweaks a Store.
type Option func(*Store)

// WithLogger sets the logger (default discards).
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New wraps m. Call Begin before use.
func New(m Medium, opts ...Option) *Store {
	s := &Store{m: m, log: log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Begin opens the medium and initialises erased cells to zero.
func (s *Store) Begin() error {
	if err := s.m.Begin(types.NumCounters); err != nil {
		s.fail("begin", err)
		return s.cause
	}
	for _, k := range types.Counters() {
		if s.m.Read(int(k)) == Erased {
			s.Reset(k)
		}
	}
	return s.cause
}

// Close releases the medium. Safe to call after a failure.
func (s *Store) Close() error { return s.m.End() }

// Status returns the latched health.
func (s *Store) Status() Status { return s.status }

// Failed reports whether the store has latched into degraded mode.
func (s *Store) Failed() bool { return s.status == StatusFailed }

// Err returns the error that latched the store, if any.
func (s *Store) Err() error { return s.cause }

// Read returns the stored value, or 0 once failed.
func (s *Store) Read(k types.CounterKey) uint8 {
	if s.Failed() || !k.Valid() {
		return 0
	}
	return s.m.Read(int(k))
}

// Increment adds amount to k, wrapping at 256.
func (s *Store) Increment(k types.CounterKey, amount uint8) {
	if s.Failed() || !k.Valid() {
		return
	}
	s.m.Write(int(k), s.m.Read(int(k))+amount)
	s.commit("increment " + k.String())
}

// Reset sets k to 0.
func (s *Store) Reset(k types.CounterKey) {
	if s.Failed() || !k.Valid() {
		return
	}
	s.m.Write(int(k), 0)
	s.commit("reset " + k.String())
}

// ResetAll zeroes every counter (factory reset).
func (s *Store) ResetAll() {
	for _, k := range types.Counters() {
		s.Reset(k)
	}
}

// Display returns the value to print on a diagnostic message.
//
// BootCount is reported and then reset to 0: it counts boots since the last
// diagnostic. SmsSent is reported as stored+1, the ordinal of the message
// being composed.
func (s *Store) Display(k types.CounterKey) types.CounterValue {
	if s.Failed() {
		return types.TextValue(types.CounterFailedText)
	}
	switch k {
	case types.CounterBootCount:
		v := s.m.Read(int(k))
		s.Reset(k)
		return types.CountValue(v)
	case types.CounterSmsSent:
		return types.CountValue(s.m.Read(int(k)) + 1)
	default:
		return types.CountValue(s.Read(k))
	}
}

func (s *Store) commit(op string) {
	if err := s.m.Commit(); err != nil {
		s.fail(op, err)
	}
}

// caller checked !Failed
func (s *Store) fail(op string, err error) {
	if s.status == StatusFailed {
		return
	}
	s.status = StatusFailed
	s.cause = errcode.Wrap(errcode.StorageFailed, op, err)
	s.log.Printf("counters: %v; store degraded for this episode", s.cause)
}
