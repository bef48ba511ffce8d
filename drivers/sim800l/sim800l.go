// Package sim800l drives a SIM800-class GSM modem over a UART using the
// textual AT command set. Only the subset needed to raise the modem, check
// the SIM and network, read diagnostics and submit SMS is modelled.
//
// Every exchange follows the same shape:
//
//	write "<command>\r\n"
//	wait  ResponseSettle (+ an optional extension)
//	read  whatever is buffered
//	ok := the capture contains "OK"
//
// There is no line framing and no retry inside a single exchange. Parsing of
// diagnostic replies is best-effort and degrades to 0 / "undefined".
package sim800l

import (
	"io"
	"log"
	"time"

	"leakguard-go/errcode"
	"leakguard-go/types"
	"leakguard-go/x/timex"
)

// Undefined is reported for model and operator names that could not be read.
const Undefined = "undefined"

// ctrlZ terminates an SMS body in text mode.
const ctrlZ = 0x1A

// ---- Hardware contracts ----

// UART is the serial link to the modem. Configure (re)opens the channel at
// baud, 8N1. Buffered and Read never block.
type UART interface {
	Configure(baud uint32) error
	Write(p []byte) (int, error)
	Buffered() int
	Read(p []byte) (int, error)
}

// Flusher is optionally implemented by a UART that queues output.
type Flusher interface {
	Flush() error
}

// PowerSwitch gates modem supply.
type PowerSwitch interface {
	Set(on bool)
}

// Indicator shows the colour for the kind of message being sent.
type Indicator interface {
	Show(c types.Color)
}

// Counters is the slice of the durable counter store the driver needs.
type Counters interface {
	Read(k types.CounterKey) uint8
	Increment(k types.CounterKey, amount uint8)
	Display(k types.CounterKey) types.CounterValue
}

// ---- Configuration ----

// Config controls timing and messaging. Zero durations take defaults.
type Config struct {
	Baud uint32 // default 9600

	PowerSettle     time.Duration // after asserting power, default 8s
	ResponseSettle  time.Duration // after each command, default 75ms
	AckWindow       time.Duration // extra wait for the SMS acknowledgement, default 7s
	ConnectTimeout  time.Duration // network registration budget, default 2m
	PollInterval    time.Duration // between signal polls, default 500ms
	OperatorTimeout time.Duration // operator name retries, default 10s

	SMSEnabled bool
	Recipients []string
	// MaxSendsPerEpisode caps SMS submissions in one powered episode.
	// 0 means one per recipient.
	MaxSendsPerEpisode int
	// SIMCredit is the number of SMS the SIM is provisioned for. It is shown
	// on diagnostics and, with EnforceSIMCredit, refuses sends once reached.
	SIMCredit        uint8
	EnforceSIMCredit bool

	AlertLines       []string
	DiagnosticHeader string
}

func (c *Config) applyDefaults() {
	if c.Baud == 0 {
		c.Baud = 9600
	}
	if c.PowerSettle <= 0 {
		c.PowerSettle = 8 * time.Second
	}
	if c.ResponseSettle <= 0 {
		c.ResponseSettle = 75 * time.Millisecond
	}
	if c.AckWindow <= 0 {
		c.AckWindow = 7 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 2 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.OperatorTimeout <= 0 {
		c.OperatorTimeout = 10 * time.Second
	}
	if c.SIMCredit == 0 {
		c.SIMCredit = 30
	}
	if len(c.AlertLines) == 0 {
		c.AlertLines = []string{"WARNING!", "Water leak detected!"}
	}
	if c.DiagnosticHeader == "" {
		c.DiagnosticHeader = "Status!"
	}
}

// ---- Session ----

// State is the modem session state. Transitions only happen inside explicit
// calls; nothing advances in the background.
type State uint8

const (
	StatePoweredOff State = iota
	StatePoweringOn
	StateHandshaking
	StateSimVerified
	StateAwaitingNetwork
	StateConnected
)

func (s State) String() string {
	switch s {
	case StatePoweringOn:
		return "powering_on"
	case StateHandshaking:
		return "handshaking"
	case StateSimVerified:
		return "sim_verified"
	case StateAwaitingNetwork:
		return "awaiting_network"
	case StateConnected:
		return "connected"
	default:
		return "powered_off"
	}
}

// Session is the transient state of one powered episode of the modem.
type Session struct {
	State    State
	Powered  bool
	Signal   int // 0..100
	Model    string
	Operator string
}

// Up reports whether the handshake and SIM check have passed.
func (s Session) Up() bool { return s.State >= StateSimVerified }

func offSession() Session {
	return Session{State: StatePoweredOff, Model: Undefined, Operator: Undefined}
}

// ---- Device ----

// Device is a SIM800 modem behind a UART and a power switch.
type Device struct {
	uart  UART
	power PowerSwitch
	cfg   Config

	ind      Indicator
	counters Counters
	clock    timex.Clock
	log      *log.Logger

	sess Session

	// Formatted counters captured with the diagnostics.
	smsSent   types.CounterValue
	bootCount types.CounterValue

	// Sends that passed the quota gate this episode.
	attempts int

	buf [64]byte
}

// Option configures optional collaborators.
type Option func(*Device)

func WithIndicator(i Indicator) Option { return func(d *Device) { d.ind = i } }
func WithCounters(c Counters) Option   { return func(d *Device) { d.counters = c } }
func WithClock(c timex.Clock) Option   { return func(d *Device) { d.clock = c } }
func WithLogger(l *log.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a Device. It does not touch the hardware.
func New(uart UART, power PowerSwitch, cfg Config, opts ...Option) *Device {
	cfg.applyDefaults()
	d := &Device{
		uart:      uart,
		power:     power,
		cfg:       cfg,
		log:       log.New(io.Discard, "", 0),
		sess:      offSession(),
		smsSent:   types.TextValue(Undefined),
		bootCount: types.TextValue(Undefined),
	}
	for _, o := range opts {
		o(d)
	}
	d.clock = timex.Or(d.clock)
	return d
}

// Config returns the effective configuration (defaults applied).
func (d *Device) Config() Config { return d.cfg }

// Session returns a snapshot of the current session.
func (d *Device) Session() Session { return d.sess }

// Begin powers the modem, opens the UART and performs the two-step
// handshake. It does not retry; the caller decides what to do on failure.
func (d *Device) Begin(kind types.AlertKind) error {
	if d.ind != nil {
		if c, ok := types.ColorFor(kind); ok {
			d.ind.Show(c)
		}
	}

	d.sess = offSession()
	d.sess.State = StatePoweringOn
	d.sess.Powered = true
	d.power.Set(true)
	d.clock.Sleep(d.cfg.PowerSettle)

	if err := d.uart.Configure(d.cfg.Baud); err != nil {
		d.log.Printf("sim800l: uart configure failed: %v", err)
		return errcode.Wrap(errcode.HandshakeFailed, "begin", err)
	}

	d.sess.State = StateHandshaking
	if _, ok := d.sendAndVerify("AT", 0); !ok {
		d.log.Printf("sim800l: modem not responding")
		return errcode.Wrap(errcode.HandshakeFailed, "begin", nil)
	}
	if _, ok := d.sendAndVerify("AT+CCID", 0); !ok {
		d.log.Printf("sim800l: SIM card not found")
		return errcode.Wrap(errcode.SimNotFound, "begin", nil)
	}

	d.sess.State = StateSimVerified
	d.log.Printf("sim800l: powered on")
	return nil
}

// Flush waits for queued UART output to drain, if the UART supports it.
func (d *Device) Flush() {
	if f, ok := d.uart.(Flusher); ok {
		if err := f.Flush(); err != nil {
			d.log.Printf("sim800l: flush: %v", err)
		}
	}
}

// PowerOff ends the session: flush output, cut modem power.
func (d *Device) PowerOff() {
	d.Flush()
	d.power.Set(false)
	d.sess = offSession()
	d.log.Printf("sim800l: off")
}

// Release is PowerOff under the name the control loop uses for peripherals.
func (d *Device) Release() { d.PowerOff() }
