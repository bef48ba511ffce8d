// Command leakguard-host runs the leak detector on a Linux board with a
// USB or UART attached SIM800L. Deep sleep is emulated in-process, so one
// invocation runs episodes until the controller cuts power.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"leakguard-go/drivers/sim800l"
	"leakguard-go/drivers/sim800l/sim800ltest"
	"leakguard-go/platform"
	"leakguard-go/services/alert"
	"leakguard-go/services/config"
	"leakguard-go/services/counters"
	"leakguard-go/x/strx"
	"leakguard-go/x/timex"
)

var opt struct {
	Config        string `short:"c" long:"config" env:"LEAKGUARD_CONFIG" description:"YAML or TOML config file"`
	Board         string `long:"board" default:"sim800-hat" description:"built-in board profile"`
	Serial        string `long:"serial" default:"/dev/ttyUSB0" description:"modem serial device"`
	SqliteFile    string `long:"sqlite-file" env:"LEAKGUARD_DB" default:"/var/lib/leakguard/counters.db" description:"counter database"`
	LatchPin      string `long:"latch-pin" description:"power latch output (default GPIO19)"`
	ModemPin      string `long:"modem-pin" description:"modem supply output (default GPIO26)"`
	ButtonPin     string `long:"button-pin" description:"test button input (default GPIO13)"`
	SensorPin     string `long:"sensor-pin" description:"probe input (default GPIO4)"`
	ResetCounters bool   `long:"reset-counters" description:"zero the boot and SMS counters and exit"`
	Episodes      int    `long:"episodes" default:"0" description:"stop after n episodes (0: until power off)"`
	DryRun        bool   `long:"dry-run" description:"simulated pins and modem"`
	SimLevel      uint16 `long:"sim-level" default:"0" description:"dry run: sensor reading"`
	SimButton     bool   `long:"sim-button" description:"dry run: hold the test button on the first episode"`
	Verbose       bool   `short:"v" long:"verbose" description:"debug logging"`
}

func main() {
	if _, err := flags.ParseArgs(&opt, os.Args); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		log.Fatalf("error parsing flags: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(opt.Board, opt.Config)
	if err != nil {
		logger.WithError(err).Fatal("config")
	}
	if cfg.Verbose || opt.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	std := log.New(logger.WriterLevel(logrus.DebugLevel), "", 0)

	var medium counters.Medium = platform.NewSQLiteMedium(opt.SqliteFile)
	if opt.DryRun {
		medium = counters.NewMemMedium()
	}

	if opt.ResetCounters {
		store := counters.New(medium, counters.WithLogger(std))
		if err := store.Begin(); err != nil {
			logger.WithError(err).Fatal("counters")
		}
		store.ResetAll()
		if err := store.Close(); err != nil || store.Failed() {
			logger.WithError(store.Err()).Fatal("reset counters")
		}
		logger.Info("counters reset")
		return
	}

	board, modemPort, err := openHardware(std)
	if err != nil {
		logger.WithError(err).Fatal("hardware")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"recipients": len(cfg.SMS.Recipients),
		"sms":        cfg.SMS.Enabled,
		"dry_run":    opt.DryRun,
	}).Info("leakguard starting")

	for n := 1; opt.Episodes == 0 || n <= opt.Episodes; n++ {
		if ctx.Err() != nil {
			break
		}
		store := counters.New(medium, counters.WithLogger(std))
		if err := store.Begin(); err != nil {
			logger.WithError(err).Warn("counter store degraded")
		}
		modem := sim800l.New(modemPort.uart, modemPort.power, cfg.ModemConfig(),
			sim800l.WithIndicator(board.LED),
			sim800l.WithCounters(store),
			sim800l.WithLogger(std),
		)
		out := alert.New(alert.Deps{
			Modem:     modem,
			Counters:  store,
			Button:    board.Button,
			Sensor:    board.Sensor,
			Wake:      board.Wake,
			Indicator: board.LED,
			Sleeper:   board.Sleeper,
			Latch:     board.Latch,
			Log:       std,
		}, cfg).Run(ctx)

		entry := logger.WithFields(logrus.Fields{
			"episode": n,
			"wake":    out.Wake.String(),
			"kind":    out.Kind.String(),
			"action":  out.Action.String(),
		})
		if out.Sampled {
			entry = entry.WithField("avg", out.Average)
		}
		if out.Action == alert.ActionDeepSleep {
			entry = entry.WithField("sleep", out.Sleep.String())
		}
		if out.Err != nil {
			entry.WithError(out.Err).Warn("episode finished with delivery failure")
		} else {
			entry.Info("episode finished")
		}
		if board.Latch.Off {
			break
		}
	}
	if c, ok := modemPort.uart.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

type modemLink struct {
	uart  sim800l.UART
	power sim800l.PowerSwitch
}

func openHardware(l *log.Logger) (*platform.HostBoard, modemLink, error) {
	if opt.DryRun {
		board, _ := platform.SimBoard(opt.SimButton, opt.SimLevel, l)
		board.Sleeper.Cap = 2 * time.Second
		m := sim800ltest.NewModem(timex.System{}).Ready()
		return board, modemLink{uart: m, power: m.Power}, nil
	}
	pins := platform.DefaultHostPins()
	pins.Latch = strx.Coalesce(opt.LatchPin, pins.Latch)
	pins.ModemPower = strx.Coalesce(opt.ModemPin, pins.ModemPower)
	pins.Button = strx.Coalesce(opt.ButtonPin, pins.Button)
	pins.Sensor = strx.Coalesce(opt.SensorPin, pins.Sensor)
	board, err := platform.OpenHostBoard(pins, l)
	if err != nil {
		return nil, modemLink{}, err
	}
	return board, modemLink{uart: platform.NewSerialModem(opt.Serial), power: board.ModemPower}, nil
}
