//go:build rp2040

package platform

import (
	"machine"
	"time"

	"device/rp"

	"leakguard-go/types"

	"tinygo.org/x/drivers/ws2812"
)

// Pin map of the leakguard carrier board.
const (
	PinLatch      = machine.GPIO15 // high cuts all power (latching circuit)
	PinModemPower = machine.GPIO14
	PinButton     = machine.GPIO13 // test button, active high
	PinSensor     = machine.ADC0   // GPIO26, third conductive leg
	PinLED        = machine.GPIO16 // WS2812B data
	PinModemTX    = machine.GPIO4
	PinModemRX    = machine.GPIO5
)

// ---- Board ----

// Board is the rp2040 implementation of every peripheral an episode uses.
type Board struct {
	Modem      *ModemPort
	ModemPower *OutPin
	LED        *LED
	Button     Button
	Sensor     *ADCSensor
	Wake       Wake
	Sleeper    *Sleeper
	Latch      *Latch
	Counters   *FlashMedium
}

// NewBoard configures the pins, reads (and clears) the wake cause and
// returns the board. Power latch and modem supply start released.
func NewBoard() *Board {
	latch := &Latch{p: PinLatch}
	latch.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	latch.p.Low()

	power := &OutPin{p: PinModemPower}
	power.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	power.Set(false)

	PinButton.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})

	PinLED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led := NewLED(ws2812.NewWS2812(PinLED))

	machine.InitADC()

	return &Board{
		Modem:      NewModemPort(PinModemTX, PinModemRX),
		ModemPower: power,
		LED:        led,
		Button:     Button{p: PinButton},
		Sensor:     &ADCSensor{pin: PinSensor},
		Wake:       Wake{cause: takeWakeCause()},
		Sleeper:    &Sleeper{btn: PinButton},
		Latch:      latch,
		Counters:   &FlashMedium{},
	}
}

// ---- Pins ----

type OutPin struct{ p machine.Pin }

func (o *OutPin) Set(on bool) { o.p.Set(on) }

type Button struct{ p machine.Pin }

func (b Button) Pressed() bool { return b.p.Get() }

// Latch releases the power latch. On real hardware the supply collapses
// within milliseconds; the loop only covers the discharge time.
type Latch struct{ p machine.Pin }

func (l *Latch) PowerOff() {
	l.p.High()
	for {
		time.Sleep(time.Second)
	}
}

// ---- Sensor ----

// ADCSensor samples the probe leg. Between episodes the leg is driven low
// so no current flows through the water film.
type ADCSensor struct {
	pin machine.Pin
	adc machine.ADC
	on  bool
}

// Read returns a 12-bit sample.
func (s *ADCSensor) Read() uint16 {
	if !s.on {
		s.adc = machine.ADC{Pin: s.pin}
		s.adc.Configure(machine.ADCConfig{})
		s.on = true
	}
	return s.adc.Get() >> 4
}

func (s *ADCSensor) Release() {
	s.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.pin.Low()
	s.on = false
}

// ---- Wake cause ----

// The wake cause survives the watchdog reset in SCRATCH0; a power-on reset
// clears it, which reads as a cold boot.
const wakeMagic = 0x4C470000

func takeWakeCause() types.WakeCause {
	v := rp.WATCHDOG.SCRATCH0.Get()
	rp.WATCHDOG.SCRATCH0.Set(0)
	if v&0xFFFF0000 != wakeMagic {
		return types.WakeColdBoot
	}
	switch types.WakeCause(v & 0xFF) {
	case types.WakeTimer:
		return types.WakeTimer
	case types.WakeButton:
		return types.WakeButton
	}
	return types.WakeColdBoot
}

func storeWakeCause(c types.WakeCause) {
	rp.WATCHDOG.SCRATCH0.Set(wakeMagic | uint32(c))
}

type Wake struct{ cause types.WakeCause }

func (w Wake) WakeCause() types.WakeCause { return w.cause }

// ---- Sleep ----

// Sleeper waits out the armed timer while watching the test button, records
// which fired and resets the chip through the watchdog.
type Sleeper struct {
	btn    machine.Pin
	d      time.Duration
	button bool
}

func (s *Sleeper) ArmTimer(d time.Duration) { s.d = d }
func (s *Sleeper) ArmButton()               { s.button = true }

// Suspend does not return.
func (s *Sleeper) Suspend() {
	// TODO: enter DORMANT with the RTC as wake source once the board fits
	// the 32 kHz crystal; until then this is a low duty poll.
	cause := types.WakeTimer
	deadline := time.Now().Add(s.d)
	for time.Now().Before(deadline) {
		if s.button && s.btn.Get() {
			cause = types.WakeButton
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	storeWakeCause(cause)
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	machine.Watchdog.Start()
	for {
		time.Sleep(time.Second)
	}
}
