// Package alert sequences one power episode of the leak detector: read the
// wake cause and the test button, sample the moisture sensor, hand a message
// to the modem when needed, then either deep-sleep or cut power.
//
// An episode always ends in exactly one of two terminal actions. Deep sleep
// arms a timer and the test button as wake sources and suspends; the next
// wake is a fresh episode. Shutdown releases the power latch; only the test
// button (which re-energises the latch circuit) brings the device back.
package alert

import (
	"context"
	"io"
	"log"
	"time"

	"leakguard-go/services/config"
	"leakguard-go/types"
	"leakguard-go/x/mathx"
	"leakguard-go/x/timex"
)

// ---- Collaborators ----

// Messenger delivers one message of a kind to every recipient.
type Messenger interface {
	SendMessage(ctx context.Context, kind types.AlertKind) error
	Release() // flush and power off
}

// Counters is the durable counter store.
type Counters interface {
	Increment(k types.CounterKey, amount uint8)
	Close() error
}

type Button interface {
	Pressed() bool
}

// Sensor reads the moisture probe. Release parks the probe so no current
// flows between samples.
type Sensor interface {
	Read() uint16
	Release()
}

// WakeSource reports why this episode started. Read once, at the start.
type WakeSource interface {
	WakeCause() types.WakeCause
}

type Indicator interface {
	Show(c types.Color)
}

// Sleeper arms wake sources and enters deep sleep. Suspend does not return
// on hardware; the host harness returns and starts the next episode.
type Sleeper interface {
	ArmTimer(d time.Duration)
	ArmButton()
	Suspend()
}

// Latch cuts power to the whole circuit.
type Latch interface {
	PowerOff()
}

// Deps bundles everything an episode touches.
type Deps struct {
	Modem     Messenger
	Counters  Counters
	Button    Button
	Sensor    Sensor
	Wake      WakeSource
	Indicator Indicator
	Sleeper   Sleeper
	Latch     Latch
	Clock     timex.Clock
	Log       *log.Logger
}

// ---- Outcome ----

type Action uint8

const (
	ActionDeepSleep Action = iota + 1
	ActionShutdown
)

func (a Action) String() string {
	switch a {
	case ActionDeepSleep:
		return "deep_sleep"
	case ActionShutdown:
		return "shutdown"
	default:
		return "none"
	}
}

// Outcome records what an episode did.
type Outcome struct {
	Wake    types.WakeCause
	Kind    types.AlertKind // message attempted, AlertKindNone if none
	Average uint16          // sensor average, when sampled
	Sampled bool
	Err     error // delivery failure, if any
	Action  Action
	Sleep   time.Duration // for ActionDeepSleep
}

// ---- Controller ----

type Controller struct {
	d   Deps
	cfg config.Config
	clk timex.Clock
	log *log.Logger
}

func New(d Deps, cfg config.Config) *Controller {
	c := &Controller{d: d, cfg: cfg, clk: timex.Or(d.Clock), log: d.Log}
	if c.log == nil {
		c.log = log.New(io.Discard, "", 0)
	}
	return c
}

// Run executes one episode and returns its outcome. On hardware the terminal
// action does not return; Run returns so hosts and tests can observe it.
func (c *Controller) Run(ctx context.Context) Outcome {
	out := Outcome{Wake: c.d.Wake.WakeCause()}
	c.log.Printf("alert: wake=%v", out.Wake)

	if c.d.Button.Pressed() {
		c.log.Printf("alert: test button pressed")
		out.Kind = types.AlertKindDiagnostic
		out.Err = c.send(ctx, out.Kind)
		return c.shutdown(out)
	}

	if out.Wake == types.WakeTimer {
		return c.shutdown(out)
	}

	c.d.Counters.Increment(types.CounterBootCount, 1)

	out.Average = c.sample()
	out.Sampled = true
	if out.Average <= c.cfg.Sensor.Threshold {
		c.log.Printf("alert: dry (avg=%d)", out.Average)
		return c.deepSleep(out, c.cfg.Sleep.Short)
	}

	c.log.Printf("alert: leak detected (avg=%d)", out.Average)
	out.Kind = types.AlertKindAlert
	if out.Err = c.send(ctx, out.Kind); out.Err != nil {
		return c.shutdown(out)
	}
	return c.deepSleep(out, c.cfg.Sleep.Long)
}

// send delivers a message and signals the result on the indicator.
func (c *Controller) send(ctx context.Context, kind types.AlertKind) error {
	err := c.d.Modem.SendMessage(ctx, kind)
	if err != nil {
		c.log.Printf("alert: %v delivery failed: %v", kind, err)
		c.blink(types.ColorRed)
		return err
	}
	c.blink(types.ColorGreen)
	return nil
}

// sample averages the configured number of readings and parks the probe.
func (c *Controller) sample() uint16 {
	n := c.cfg.Sensor.Samples
	samples := make([]uint16, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, c.d.Sensor.Read())
		c.clk.Sleep(c.cfg.Sensor.SampleInterval)
	}
	c.d.Sensor.Release()
	return mathx.MeanU16(samples)
}

func (c *Controller) blink(col types.Color) {
	for i := 0; i < c.cfg.Indicator.Blinks; i++ {
		c.d.Indicator.Show(col)
		c.clk.Sleep(c.cfg.Indicator.BlinkInterval)
		c.d.Indicator.Show(types.ColorOff)
		c.clk.Sleep(c.cfg.Indicator.BlinkInterval)
	}
}

// release powers down the modem, closes the store and turns the LED off.
func (c *Controller) release() {
	c.d.Modem.Release()
	if err := c.d.Counters.Close(); err != nil {
		c.log.Printf("alert: counters close: %v", err)
	}
	c.d.Indicator.Show(types.ColorOff)
}

func (c *Controller) deepSleep(out Outcome, d time.Duration) Outcome {
	c.release()
	class := "short"
	if d >= time.Minute {
		class = "long"
	}
	c.log.Printf("alert: deep sleep %s (%v)", class, d)

	c.d.Sleeper.ArmTimer(d)
	c.d.Sleeper.ArmButton()
	c.clk.Sleep(c.cfg.Sleep.Settle)

	out.Action, out.Sleep = ActionDeepSleep, d
	c.d.Sleeper.Suspend()
	return out
}

func (c *Controller) shutdown(out Outcome) Outcome {
	c.release()
	c.log.Printf("alert: power off")
	out.Action = ActionShutdown
	c.d.Latch.PowerOff()
	return out
}
