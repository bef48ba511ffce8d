package sim800l

import (
	"context"
	"errors"

	"leakguard-go/errcode"
	"leakguard-go/types"
	"leakguard-go/x/timex"
)

// SendMessage raises the modem, waits for the network and delivers a message
// of the given kind to every configured recipient.
//
// The connect loop is bounded by ConnectTimeout; on expiry no SMS is
// attempted and an errcode.ConnectTimeout error wrapping the last failure is
// returned. Recipient failures are joined; SmsSent is credited only when all
// recipients succeed. The modem stays powered: the caller releases it.
func (d *Device) SendMessage(ctx context.Context, kind types.AlertKind) error {
	d.attempts = 0
	deadline := timex.After(d.clock, d.cfg.ConnectTimeout)

	lastErr := d.Begin(kind)
	for !d.connected() {
		if deadline.Expired() {
			d.log.Printf("sim800l: no network after %v", d.cfg.ConnectTimeout)
			return &errcode.E{C: errcode.ConnectTimeout, Op: "send_message", Err: lastErr}
		}
		if err := ctx.Err(); err != nil {
			return errcode.Wrap(errcode.Timeout, "send_message", err)
		}
		d.clock.Sleep(d.cfg.PollInterval)
		if !d.sess.Up() {
			lastErr = d.Begin(types.AlertKindNone)
		}
	}

	if kind != types.AlertKindAlert {
		d.gatherDiagnostics(ctx)
	}

	var errs []error
	for _, n := range d.cfg.Recipients {
		if err := d.SendSMS(kind, n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if d.counters != nil && len(d.cfg.Recipients) > 0 {
		d.counters.Increment(types.CounterSmsSent, uint8(len(d.cfg.Recipients)))
	}
	return nil
}

// connected polls signal once. Before the handshake has passed there is no
// point asking, so it reports false without touching the UART.
func (d *Device) connected() bool {
	if !d.sess.Up() {
		return false
	}
	d.sess.State = StateAwaitingNetwork
	d.sess.Signal = d.SignalStrength()
	if d.sess.Signal == 0 {
		return false
	}
	d.sess.State = StateConnected
	return true
}
