package types

import "leakguard-go/x/strconvx"

// ------------------------
// Persistent counters
// ------------------------

// CounterKey is the byte address of a durable counter.
type CounterKey int

const (
	CounterBootCount CounterKey = iota
	CounterSmsSent

	NumCounters int = iota
)

func (k CounterKey) String() string {
	switch k {
	case CounterBootCount:
		return "boot_count"
	case CounterSmsSent:
		return "sms_sent"
	default:
		return "unknown"
	}
}

// Valid reports whether k addresses a known counter.
func (k CounterKey) Valid() bool { return k >= 0 && int(k) < NumCounters }

// Counters lists every key in address order.
func Counters() []CounterKey {
	return []CounterKey{CounterBootCount, CounterSmsSent}
}

// CounterFailedText replaces every formatted counter once storage has failed.
const CounterFailedText = "storage failed!"

// CounterValue is what a counter shows on a diagnostic message: either a
// count or a pre-formatted text (the storage failure sentinel).
type CounterValue struct {
	count uint8
	text  string
	isTxt bool
}

// CountValue builds a numeric CounterValue.
func CountValue(n uint8) CounterValue { return CounterValue{count: n} }

// TextValue builds a textual CounterValue.
func TextValue(s string) CounterValue { return CounterValue{text: s, isTxt: true} }

// Count returns the numeric value and whether v holds one.
func (v CounterValue) Count() (uint8, bool) { return v.count, !v.isTxt }

// IsText reports whether v holds pre-formatted text.
func (v CounterValue) IsText() bool { return v.isTxt }

func (v CounterValue) String() string {
	if v.isTxt {
		return v.text
	}
	return strconvx.Itoa(int(v.count))
}

// Format renders a count with suffix appended; text is returned as-is.
func (v CounterValue) Format(suffix string) string {
	if v.isTxt {
		return v.text
	}
	return v.String() + suffix
}
