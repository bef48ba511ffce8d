package counters

// Erased is the byte an untouched storage cell reads back as.
const Erased byte = 0xFF

// Medium is the low-level non-volatile storage driver: a small byte-addressed
// space with a RAM shadow. Write only touches the shadow; Commit persists it.
//
// Implementations live with the platform (rp2040 flash, host sqlite) and in
// MemMedium below for tests.
type Medium interface {
	Begin(size int) error
	Read(addr int) byte
	Write(addr int, v byte)
	Commit() error
	End() error
}

// MemMedium is an in-RAM Medium. Cells start erased. FailCommitAfter makes
// the n-th and later commits fail (0 disables), FailBegin fails Begin.
type MemMedium struct {
	Cells           []byte
	Committed       []byte
	Commits         int
	FailCommitAfter int
	FailBegin       bool
	Ended           bool
}

// NewMemMedium returns an erased in-RAM medium.
func NewMemMedium() *MemMedium { return &MemMedium{} }

func (m *MemMedium) Begin(size int) error {
	if m.FailBegin {
		return errMedium("begin failed")
	}
	if len(m.Committed) < size {
		grown := make([]byte, size)
		for i := range grown {
			grown[i] = Erased
		}
		copy(grown, m.Committed)
		m.Committed = grown
	}
	m.Cells = append(m.Cells[:0], m.Committed...)
	m.Ended = false
	return nil
}

func (m *MemMedium) Read(addr int) byte {
	if addr < 0 || addr >= len(m.Cells) {
		return Erased
	}
	return m.Cells[addr]
}

func (m *MemMedium) Write(addr int, v byte) {
	if addr < 0 || addr >= len(m.Cells) {
		return
	}
	m.Cells[addr] = v
}

func (m *MemMedium) Commit() error {
	m.Commits++
	if m.FailCommitAfter > 0 && m.Commits >= m.FailCommitAfter {
		return errMedium("commit failed")
	}
	m.Committed = append(m.Committed[:0], m.Cells...)
	return nil
}

func (m *MemMedium) End() error {
	m.Ended = true
	return nil
}

type errMedium string

func (e errMedium) Error() string { return "counters: medium " + string(e) }
