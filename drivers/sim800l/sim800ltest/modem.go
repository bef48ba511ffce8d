// Package sim800ltest provides a scripted SIM800 modem for tests and dry runs.
package sim800ltest

import (
	"strings"
	"time"

	"leakguard-go/x/timex"
)

// ReplyDelay is how long after a command its reply becomes readable.
const ReplyDelay = 10 * time.Millisecond

const ctrlZ = 0x1A

type pending struct {
	at   time.Time
	data string
}

// Modem is a scripted SIM800 on the far side of a UART. Each command line
// pops the next reply of its Script; the last reply repeats. Replies become
// readable ReplyDelay after the command (AckDelay for the 0x1A terminator)
// and only while Power is on. "^Z" is recorded in Lines for the terminator.
type Modem struct {
	Clock timex.Clock
	Power *Power

	Script   map[string][]string
	Ack      string
	AckDelay time.Duration

	line  []byte
	queue []pending
	rx    []byte

	Lines      []string
	Written    int
	Configured []uint32
	Flushes    int
}

// NewModem returns a silent, unpowered modem timed by clk.
func NewModem(clk timex.Clock) *Modem {
	return &Modem{
		Clock:    timex.Or(clk),
		Power:    &Power{},
		Script:   map[string][]string{},
		AckDelay: 3 * time.Second,
	}
}

// Ready scripts a modem with a SIM that registers on the second signal poll
// and acknowledges every SMS.
func (m *Modem) Ready() *Modem {
	m.Script["AT"] = []string{"AT\r\r\nOK\r\n"}
	m.Script["AT+CCID"] = []string{"AT+CCID\r\r\n8944100000000000000\r\n\r\nOK\r\n"}
	m.Script["AT+CSQ"] = []string{"+CSQ: 0,0\r\n\r\nOK\r\n", "+CSQ: 15,0\r\n\r\nOK\r\n"}
	m.Script["ATI"] = []string{"ATI\r\r\nSIM800 R14.18\r\n\r\nOK\r\n"}
	m.Script["AT+COPS?"] = []string{"+COPS: 0,0,\"Vodafone UK\"\r\n\r\nOK\r\n"}
	m.Script["AT+CMGF=1"] = []string{"OK\r\n"}
	m.Ack = "\r\n+CMGS: 12\r\n\r\nOK\r\n"
	return m
}

func (m *Modem) Configure(baud uint32) error {
	m.Configured = append(m.Configured, baud)
	return nil
}

func (m *Modem) Write(p []byte) (int, error) {
	m.Written += len(p)
	for _, b := range p {
		switch b {
		case ctrlZ:
			m.Lines = append(m.Lines, "^Z")
			m.reply(m.Ack, m.AckDelay)
		case '\n':
			cmd := strings.TrimSuffix(string(m.line), "\r")
			m.line = m.line[:0]
			m.Lines = append(m.Lines, cmd)
			m.reply(m.next(cmd), ReplyDelay)
		default:
			m.line = append(m.line, b)
		}
	}
	return len(p), nil
}

func (m *Modem) next(cmd string) string {
	if strings.HasPrefix(cmd, "AT+CMGS=") {
		return "> "
	}
	s := m.Script[cmd]
	if len(s) == 0 {
		return ""
	}
	if len(s) > 1 {
		m.Script[cmd] = s[1:]
	}
	return s[0]
}

func (m *Modem) reply(s string, after time.Duration) {
	if s == "" || !m.Power.On {
		return
	}
	m.queue = append(m.queue, pending{at: m.Clock.Now().Add(after), data: s})
}

func (m *Modem) Buffered() int {
	now := m.Clock.Now()
	kept := m.queue[:0]
	for _, p := range m.queue {
		if !now.Before(p.at) {
			m.rx = append(m.rx, p.data...)
		} else {
			kept = append(kept, p)
		}
	}
	m.queue = kept
	return len(m.rx)
}

func (m *Modem) Read(p []byte) (int, error) {
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

func (m *Modem) Flush() error {
	m.Flushes++
	return nil
}

// Sent reports whether cmd was written as a full line.
func (m *Modem) Sent(cmd string) bool {
	for _, l := range m.Lines {
		if l == cmd {
			return true
		}
	}
	return false
}

// Count returns how many times cmd was written.
func (m *Modem) Count(cmd string) int {
	n := 0
	for _, l := range m.Lines {
		if l == cmd {
			n++
		}
	}
	return n
}

// Body returns the lines written between the CMGS address and the terminator.
func (m *Modem) Body() []string {
	var out []string
	in := false
	for _, l := range m.Lines {
		switch {
		case strings.HasPrefix(l, "AT+CMGS="):
			in, out = true, nil
		case l == "^Z":
			if in {
				return out
			}
		case in:
			out = append(out, l)
		}
	}
	return out
}

// Power is the modem supply switch.
type Power struct {
	On   bool
	Sets []bool
}

func (p *Power) Set(on bool) {
	p.On = on
	p.Sets = append(p.Sets, on)
}
