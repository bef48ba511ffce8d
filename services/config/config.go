// Package config holds the runtime configuration of the leak detector:
// modem timing, SMS recipients and quotas, sensor thresholds and sleep
// lengths. Zero values are never used directly; start from Default.
package config

import (
	"strings"
	"time"

	"leakguard-go/drivers/sim800l"
	"leakguard-go/errcode"
)

// -----------------------------------------------------------------------------
// Shape
// -----------------------------------------------------------------------------

type Config struct {
	// Verbose enables diagnostic logging. Off by default on the MCU.
	Verbose bool `yaml:"verbose" toml:"verbose"`

	SMS       SMS       `yaml:"sms" toml:"sms"`
	Modem     Modem     `yaml:"modem" toml:"modem"`
	Sensor    Sensor    `yaml:"sensor" toml:"sensor"`
	Sleep     Sleep     `yaml:"sleep" toml:"sleep"`
	Indicator Indicator `yaml:"indicator" toml:"indicator"`
}

type SMS struct {
	Enabled          bool     `yaml:"enabled" toml:"enabled"`
	Recipients       []string `yaml:"recipients" toml:"recipients"`
	MaxPerEpisode    int      `yaml:"max_per_episode" toml:"max_per_episode"` // 0: one per recipient
	Credit           uint8    `yaml:"credit" toml:"credit"`
	EnforceCredit    bool     `yaml:"enforce_credit" toml:"enforce_credit"`
	AlertLines       []string `yaml:"alert_lines" toml:"alert_lines"`
	DiagnosticHeader string   `yaml:"diagnostic_header" toml:"diagnostic_header"`
}

type Modem struct {
	Baud            uint32        `yaml:"baud" toml:"baud"`
	PowerSettle     time.Duration `yaml:"power_settle" toml:"power_settle"`
	ResponseSettle  time.Duration `yaml:"response_settle" toml:"response_settle"`
	AckWindow       time.Duration `yaml:"ack_window" toml:"ack_window"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" toml:"connect_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	OperatorTimeout time.Duration `yaml:"operator_timeout" toml:"operator_timeout"`
}

type Sensor struct {
	Samples        int           `yaml:"samples" toml:"samples"`
	SampleInterval time.Duration `yaml:"sample_interval" toml:"sample_interval"`
	// Threshold is compared against the averaged 12-bit reading; strictly
	// greater means wet.
	Threshold uint16 `yaml:"threshold" toml:"threshold"`
}

type Sleep struct {
	Short  time.Duration `yaml:"short" toml:"short"`   // after a dry reading
	Long   time.Duration `yaml:"long" toml:"long"`     // after a delivered alert
	Settle time.Duration `yaml:"settle" toml:"settle"` // between arming wake sources and suspending
}

type Indicator struct {
	Blinks        int           `yaml:"blinks" toml:"blinks"`
	BlinkInterval time.Duration `yaml:"blink_interval" toml:"blink_interval"`
}

// Default returns the factory configuration. SMS is disabled until
// recipients are supplied.
func Default() Config {
	return Config{
		SMS: SMS{
			Credit:           30,
			AlertLines:       []string{"WARNING!", "Water leak detected!"},
			DiagnosticHeader: "Status!",
		},
		Modem: Modem{
			Baud:            9600,
			PowerSettle:     8 * time.Second,
			ResponseSettle:  75 * time.Millisecond,
			AckWindow:       7 * time.Second,
			ConnectTimeout:  2 * time.Minute,
			PollInterval:    500 * time.Millisecond,
			OperatorTimeout: 10 * time.Second,
		},
		Sensor: Sensor{
			Samples:        25,
			SampleInterval: time.Millisecond,
			Threshold:      5,
		},
		Sleep: Sleep{
			Short:  10 * time.Second,
			Long:   time.Hour,
			Settle: time.Second,
		},
		Indicator: Indicator{
			Blinks:        4,
			BlinkInterval: 250 * time.Millisecond,
		},
	}
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: msg}
}

// Validate reports the first inconsistency found.
func (c Config) Validate() error {
	if c.SMS.Enabled && len(c.SMS.Recipients) == 0 {
		return invalid("sms enabled without recipients")
	}
	for _, r := range c.SMS.Recipients {
		if !validNumber(r) {
			return invalid("bad recipient " + r)
		}
	}
	if c.SMS.MaxPerEpisode < 0 {
		return invalid("sms.max_per_episode < 0")
	}
	if c.Sensor.Samples <= 0 {
		return invalid("sensor.samples must be > 0")
	}
	if c.Sleep.Short <= 0 || c.Sleep.Long <= 0 {
		return invalid("sleep durations must be > 0")
	}
	if c.Indicator.Blinks < 0 {
		return invalid("indicator.blinks < 0")
	}
	return nil
}

// validNumber accepts an optional leading '+' followed by 3..20 digits.
func validNumber(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 3 || len(s) > 20 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseRecipients splits a comma separated list, dropping blanks.
func ParseRecipients(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Projections
// -----------------------------------------------------------------------------

// ModemConfig projects the modem and SMS sections onto the driver config.
func (c Config) ModemConfig() sim800l.Config {
	return sim800l.Config{
		Baud:               c.Modem.Baud,
		PowerSettle:        c.Modem.PowerSettle,
		ResponseSettle:     c.Modem.ResponseSettle,
		AckWindow:          c.Modem.AckWindow,
		ConnectTimeout:     c.Modem.ConnectTimeout,
		PollInterval:       c.Modem.PollInterval,
		OperatorTimeout:    c.Modem.OperatorTimeout,
		SMSEnabled:         c.SMS.Enabled,
		Recipients:         append([]string(nil), c.SMS.Recipients...),
		MaxSendsPerEpisode: c.SMS.MaxPerEpisode,
		SIMCredit:          c.SMS.Credit,
		EnforceSIMCredit:   c.SMS.EnforceCredit,
		AlertLines:         c.SMS.AlertLines,
		DiagnosticHeader:   c.SMS.DiagnosticHeader,
	}
}
