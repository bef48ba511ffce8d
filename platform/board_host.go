//go:build !rp2040

package platform

import (
	"image/color"
	"io"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"

	"leakguard-go/errcode"
	"leakguard-go/types"
	"leakguard-go/x/timex"
)

// HostPins names the header pins used on a Linux SBC (periph names).
type HostPins struct {
	Latch      string
	ModemPower string
	Button     string
	Sensor     string
}

func DefaultHostPins() HostPins {
	return HostPins{Latch: "GPIO19", ModemPower: "GPIO26", Button: "GPIO13", Sensor: "GPIO4"}
}

// HostBoard is the Linux implementation of the episode peripherals. The
// sensor is a digital probe: a high level reads as full scale.
type HostBoard struct {
	ModemPower *HostOut
	Button     *HostButton
	Sensor     Sensor
	Wake       *HostWake
	Sleeper    *HostSleeper
	Latch      *HostLatch
	LED        *LED
}

// Sensor is a probe that can be sampled and parked.
type Sensor interface {
	Read() uint16
	Release()
}

// OpenHostBoard initialises periph and claims the named pins.
func OpenHostBoard(names HostPins, l *log.Logger) (*HostBoard, error) {
	if _, err := host.Init(); err != nil {
		return nil, errcode.Wrap(errcode.Error, "host_init", err)
	}
	lookup := func(n string) (gpio.PinIO, error) {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, &errcode.E{C: errcode.InvalidConfig, Op: "host_pins", Msg: "no pin " + n}
		}
		return p, nil
	}
	var pins [4]gpio.PinIO
	for i, n := range []string{names.Latch, names.ModemPower, names.Button, names.Sensor} {
		p, err := lookup(n)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}
	return newHostBoard(pins[0], pins[1], pins[2], &DigitalSensor{pin: pins[3]}, l)
}

// SimBoard returns a board on in-memory pins for dry runs. pressed holds the
// test button down for the first episode; level is the sensor reading.
func SimBoard(pressed bool, level uint16, l *log.Logger) (*HostBoard, *gpiotest.Pin) {
	btn := &gpiotest.Pin{N: "BUTTON", EdgesChan: make(chan gpio.Level, 1)}
	b, _ := newHostBoard(
		&gpiotest.Pin{N: "LATCH"},
		&gpiotest.Pin{N: "MODEM_PWR"},
		btn,
		&SimSensor{Level: level},
		l,
	)
	if pressed {
		btn.L = gpio.High
	}
	return b, btn
}

func newHostBoard(latch, power, button gpio.PinIO, s Sensor, l *log.Logger) (*HostBoard, error) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	if err := latch.Out(gpio.Low); err != nil {
		return nil, errcode.Wrap(errcode.Error, "host_pins", err)
	}
	if err := power.Out(gpio.Low); err != nil {
		return nil, errcode.Wrap(errcode.Error, "host_pins", err)
	}
	if err := button.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, errcode.Wrap(errcode.Error, "host_pins", err)
	}
	wake := &HostWake{}
	return &HostBoard{
		ModemPower: &HostOut{p: power},
		Button:     &HostButton{p: button},
		Sensor:     s,
		Wake:       wake,
		Sleeper:    &HostSleeper{btn: button, wake: wake, log: l},
		Latch:      &HostLatch{p: latch},
		LED:        NewLED(logColors{l}),
	}, nil
}

// ---- Pins ----

type HostOut struct{ p gpio.PinIO }

func (o *HostOut) Set(on bool) { _ = o.p.Out(gpio.Level(on)) }

type HostButton struct{ p gpio.PinIO }

func (b *HostButton) Pressed() bool { return b.p.Read() == gpio.High }

// HostLatch drives the power latch. Off stays set so the harness can stop.
type HostLatch struct {
	p   gpio.PinIO
	Off bool
}

func (l *HostLatch) PowerOff() {
	_ = l.p.Out(gpio.High)
	l.Off = true
}

// ---- Sensors ----

const fullScale = 4095

type DigitalSensor struct {
	pin gpio.PinIO
	in  bool
}

func (s *DigitalSensor) Read() uint16 {
	if !s.in {
		_ = s.pin.In(gpio.PullDown, gpio.NoEdge)
		s.in = true
	}
	if s.pin.Read() == gpio.High {
		return fullScale
	}
	return 0
}

func (s *DigitalSensor) Release() {
	_ = s.pin.Out(gpio.Low)
	s.in = false
}

// SimSensor returns a fixed level.
type SimSensor struct {
	Level    uint16
	Released bool
}

func (s *SimSensor) Read() uint16 {
	s.Released = false
	return s.Level
}
func (s *SimSensor) Release() { s.Released = true }

// ---- Wake and sleep ----

// HostWake carries the wake cause from one in-process episode to the next.
type HostWake struct{ cause types.WakeCause }

func (w *HostWake) WakeCause() types.WakeCause { return w.cause }

// HostSleeper blocks for the armed duration or until the button rises.
// Cap, when set, shortens every sleep (dry runs).
type HostSleeper struct {
	btn    gpio.PinIO
	wake   *HostWake
	log    *log.Logger
	Clock  timex.Clock
	Cap    time.Duration
	d      time.Duration
	button bool
}

func (s *HostSleeper) ArmTimer(d time.Duration) { s.d = d }
func (s *HostSleeper) ArmButton()               { s.button = true }

func (s *HostSleeper) Suspend() {
	d := s.d
	if s.Cap > 0 && d > s.Cap {
		d = s.Cap
	}
	cause := types.WakeTimer
	if s.button && s.btn.In(gpio.PullDown, gpio.RisingEdge) == nil {
		if s.btn.WaitForEdge(d) {
			cause = types.WakeButton
		}
		_ = s.btn.In(gpio.PullDown, gpio.NoEdge)
	} else {
		timex.Or(s.Clock).Sleep(d)
	}
	s.d, s.button = 0, false
	s.wake.cause = cause
	s.log.Printf("host: woke by %v", cause)
}

// ---- LED ----

type logColors struct{ l *log.Logger }

func (w logColors) WriteColors(buf []color.RGBA) error {
	for _, c := range buf {
		w.l.Printf("led: rgb(%d,%d,%d)", c.R, c.G, c.B)
	}
	return nil
}
