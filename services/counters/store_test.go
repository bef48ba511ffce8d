package counters

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"leakguard-go/errcode"
	"leakguard-go/types"
)

func newStore(t *testing.T, m *MemMedium) *Store {
	t.Helper()
	s := New(m)
	if err := s.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return s
}

func TestBeginInitialisesErasedCells(t *testing.T) {
	m := NewMemMedium()
	s := newStore(t, m)
	for _, k := range types.Counters() {
		if got := s.Read(k); got != 0 {
			t.Fatalf("%v after first Begin = %d, want 0", k, got)
		}
	}
	if m.Commits != types.NumCounters {
		t.Fatalf("commits = %d, want one per erased key", m.Commits)
	}
}

func TestBeginKeepsExistingValues(t *testing.T) {
	m := &MemMedium{Committed: []byte{7, Erased}}
	s := newStore(t, m)
	if got := s.Read(types.CounterBootCount); got != 7 {
		t.Fatalf("BootCount = %d, want 7", got)
	}
	if got := s.Read(types.CounterSmsSent); got != 0 {
		t.Fatalf("SmsSent = %d, want 0 (erased reset)", got)
	}
}

func TestIncrementPersistsAndWraps(t *testing.T) {
	m := NewMemMedium()
	s := newStore(t, m)
	s.Increment(types.CounterSmsSent, 3)
	s.Increment(types.CounterSmsSent, 2)
	if got := s.Read(types.CounterSmsSent); got != 5 {
		t.Fatalf("SmsSent = %d, want 5", got)
	}
	if m.Committed[types.CounterSmsSent] != 5 {
		t.Fatalf("not committed: %v", m.Committed)
	}

	for i := 0; i < 256; i++ {
		s.Increment(types.CounterBootCount, 1)
	}
	if got := s.Read(types.CounterBootCount); got != 0 {
		t.Fatalf("BootCount after 256 increments = %d, want wrap to 0", got)
	}
}

func TestDisplayAsymmetry(t *testing.T) {
	m := &MemMedium{Committed: []byte{4, 9}}
	s := newStore(t, m)

	boot := s.Display(types.CounterBootCount)
	if n, ok := boot.Count(); !ok || n != 4 {
		t.Fatalf("BootCount display = %v", boot)
	}
	if got := s.Read(types.CounterBootCount); got != 0 {
		t.Fatalf("BootCount after display = %d, want reset to 0", got)
	}

	sms := s.Display(types.CounterSmsSent)
	if n, ok := sms.Count(); !ok || n != 10 {
		t.Fatalf("SmsSent display = %v, want stored+1 = 10", sms)
	}
	if got := s.Read(types.CounterSmsSent); got != 9 {
		t.Fatalf("SmsSent display must not modify storage, got %d", got)
	}
}

func TestWriteFailureLatches(t *testing.T) {
	var buf bytes.Buffer
	m := &MemMedium{Committed: []byte{3, 3}, FailCommitAfter: 1}
	s := New(m, WithLogger(log.New(&buf, "", 0)))
	if err := s.Begin(); err != nil {
		t.Fatalf("Begin with nothing erased should not commit: %v", err)
	}

	s.Increment(types.CounterBootCount, 1)
	if !s.Failed() || s.Status() != StatusFailed {
		t.Fatalf("store not latched after commit failure")
	}
	if errcode.Of(s.Err()) != errcode.StorageFailed {
		t.Fatalf("Err() code = %v", errcode.Of(s.Err()))
	}

	commits := m.Commits
	s.Increment(types.CounterSmsSent, 1)
	s.Reset(types.CounterBootCount)
	if m.Commits != commits {
		t.Fatalf("writes after failure reached the medium")
	}
	for _, k := range types.Counters() {
		if got := s.Read(k); got != 0 {
			t.Fatalf("Read(%v) after failure = %d, want 0", k, got)
		}
		if got := s.Display(k); !got.IsText() || got.String() != types.CounterFailedText {
			t.Fatalf("Display(%v) after failure = %q", k, got)
		}
	}
	if n := strings.Count(buf.String(), "degraded"); n != 1 {
		t.Fatalf("failure logged %d times, want once", n)
	}
}

func TestBeginFailureLatches(t *testing.T) {
	s := New(&MemMedium{FailBegin: true})
	if err := s.Begin(); errcode.Of(err) != errcode.StorageFailed {
		t.Fatalf("Begin err = %v", err)
	}
	if !s.Failed() {
		t.Fatalf("store healthy after Begin failure")
	}
}

func TestResetAllAndClose(t *testing.T) {
	m := &MemMedium{Committed: []byte{5, 6}}
	s := newStore(t, m)
	s.ResetAll()
	if s.Read(types.CounterBootCount) != 0 || s.Read(types.CounterSmsSent) != 0 {
		t.Fatalf("ResetAll left values behind")
	}
	if err := s.Close(); err != nil || !m.Ended {
		t.Fatalf("Close: %v ended=%v", err, m.Ended)
	}
}
