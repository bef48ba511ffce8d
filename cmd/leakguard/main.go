//go:build rp2040

// Command leakguard is the rp2040 firmware. Every boot is one episode: the
// controller decides, optionally sends an SMS, and then deep-sleeps or cuts
// power, so main never loops.
//
// Build-time settings:
//
//	tinygo flash -target pico -ldflags "-X main.recipients=+447700900001,+447700900002 -X main.smsEnabled=1" ./cmd/leakguard
//
// -X main.verbose=1 logs to USB serial; -X main.resetAll=1 zeroes the
// counters and parks until new firmware is flashed.
package main

import (
	"context"
	"io"
	"log"
	"machine"
	"time"

	"leakguard-go/drivers/sim800l"
	"leakguard-go/platform"
	"leakguard-go/services/alert"
	"leakguard-go/services/config"
	"leakguard-go/services/counters"
)

var (
	recipients string
	smsEnabled = "0"
	resetAll   = "0"
	verbose    = "0"
)

func main() {
	b := platform.NewBoard()

	cfg := config.Default()
	cfg.Verbose = verbose == "1"
	cfg.SMS.Enabled = smsEnabled == "1"
	cfg.SMS.Recipients = config.ParseRecipients(recipients)

	l := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		// Allow USB CDC to enumerate before we print.
		time.Sleep(2 * time.Second)
		l = log.New(machine.Serial, "", 0)
	}
	if err := cfg.Validate(); err != nil {
		l.Printf("config: %v; sms disabled", err)
		cfg.SMS.Enabled = false
		cfg.SMS.Recipients = nil
	}
	l.Printf("---- leakguard: %d recipient(s), sms enabled=%v", len(cfg.SMS.Recipients), cfg.SMS.Enabled)

	store := counters.New(b.Counters, counters.WithLogger(l))
	_ = store.Begin()

	if resetAll == "1" {
		store.ResetAll()
		l.Printf("---- counters reset, awaiting new firmware")
		for {
			time.Sleep(time.Hour)
		}
	}

	modem := sim800l.New(b.Modem, b.ModemPower, cfg.ModemConfig(),
		sim800l.WithIndicator(b.LED),
		sim800l.WithCounters(store),
		sim800l.WithLogger(l),
	)

	ctrl := alert.New(alert.Deps{
		Modem:     modem,
		Counters:  store,
		Button:    b.Button,
		Sensor:    b.Sensor,
		Wake:      b.Wake,
		Indicator: b.LED,
		Sleeper:   b.Sleeper,
		Latch:     b.Latch,
		Log:       l,
	}, cfg)
	ctrl.Run(context.Background())

	// Not reached on hardware: both terminal actions stop the core.
	for {
		time.Sleep(time.Hour)
	}
}
