package sim800l

import (
	"context"

	"leakguard-go/types"
	"leakguard-go/x/timex"
)

// SignalStrength queries AT+CSQ and returns signal quality in 0..100.
// Any failure reads as 0, which the connect loop treats as "no network".
func (d *Device) SignalStrength() int {
	resp, ok := d.sendAndVerify("AT+CSQ", 0)
	if !ok {
		return 0
	}
	return ParseSignalQuality(resp)
}

// ModelName queries ATI, or returns Undefined.
func (d *Device) ModelName() string {
	resp, ok := d.sendAndVerify("ATI", 0)
	if !ok {
		return Undefined
	}
	name, ok := ParseModelName(resp)
	if !ok {
		return Undefined
	}
	return name
}

// NetworkOperator polls AT+COPS? until an operator name is reported or
// OperatorTimeout elapses; then Undefined.
func (d *Device) NetworkOperator(ctx context.Context) string {
	deadline := timex.After(d.clock, d.cfg.OperatorTimeout)
	for {
		if name, ok := d.operatorOnce(); ok {
			return name
		}
		if deadline.Expired() || ctx.Err() != nil {
			return Undefined
		}
		d.clock.Sleep(d.cfg.PollInterval)
	}
}

func (d *Device) operatorOnce() (string, bool) {
	resp, ok := d.sendAndVerify("AT+COPS?", 0)
	if !ok {
		return "", false
	}
	return ParseOperator(resp)
}

// gatherDiagnostics fills the session and formatted counters used by the
// diagnostic message body. Reading BootCount resets it.
func (d *Device) gatherDiagnostics(ctx context.Context) {
	d.sess.Signal = d.SignalStrength()
	d.sess.Model = d.ModelName()
	d.sess.Operator = d.NetworkOperator(ctx)
	if d.counters != nil {
		d.bootCount = d.counters.Display(types.CounterBootCount)
		d.smsSent = d.counters.Display(types.CounterSmsSent)
	}
	d.log.Printf("sim800l: signal=%d%% network=%q model=%q sms=%s boot=%s",
		d.sess.Signal, d.sess.Operator, d.sess.Model, d.smsSent, d.bootCount)
}
