package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", SimNotFound, SimNotFound},
		{"wrapped E", Wrap(HandshakeFailed, "begin", nil), HandshakeFailed},
		{"fmt wrapped code", fmt.Errorf("ctx: %w", ConnectTimeout), ConnectTimeout},
		{"fmt wrapped E", fmt.Errorf("ctx: %w", &E{C: SendFailed}), SendFailed},
		{"foreign", errors.New("boom"), Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("%s: Of() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestHasSearchesJoinedErrors(t *testing.T) {
	err := errors.Join(
		Wrap(SendFailed, "sms", nil),
		Wrap(QuotaExhausted, "sms", nil),
	)
	if !Has(err, QuotaExhausted) {
		t.Fatalf("Has(QuotaExhausted) = false, want true")
	}
	if Has(err, SimNotFound) {
		t.Fatalf("Has(SimNotFound) = true, want false")
	}
}

func TestEErrorIncludesOpAndCause(t *testing.T) {
	e := &E{C: ConnectTimeout, Op: "send_message", Err: SimNotFound}
	if got, want := e.Error(), "send_message: connect_timeout (sim_not_found)"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, SimNotFound) {
		t.Fatalf("errors.Is(cause) = false")
	}
}
