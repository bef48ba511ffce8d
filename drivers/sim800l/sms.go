package sim800l

import (
	"leakguard-go/errcode"
	"leakguard-go/types"
	"leakguard-go/x/strconvx"
)

// Display suffixes for the diagnostic counters.
const (
	smsSuffix  = "/"
	bootSuffix = " (resets to 0)"
)

// budget is the number of sends allowed this episode.
func (d *Device) budget() int {
	if d.cfg.MaxSendsPerEpisode > 0 {
		return d.cfg.MaxSendsPerEpisode
	}
	return len(d.cfg.Recipients)
}

// gate decides whether one more SMS may be submitted. It must run before any
// byte of the submission reaches the UART.
func (d *Device) gate(number string) error {
	if !d.cfg.SMSEnabled {
		return &errcode.E{C: errcode.SMSDisabled, Op: "send_sms", Msg: number}
	}
	if d.attempts >= d.budget() {
		return &errcode.E{C: errcode.QuotaExhausted, Op: "send_sms", Msg: "episode budget spent"}
	}
	if d.cfg.EnforceSIMCredit && d.counters != nil &&
		d.counters.Read(types.CounterSmsSent) >= d.cfg.SIMCredit {
		return &errcode.E{C: errcode.QuotaExhausted, Op: "send_sms", Msg: "SIM credit used up"}
	}
	return nil
}

// Body returns the message lines for kind. Diagnostic bodies use the values
// captured by the last gatherDiagnostics.
func (d *Device) Body(kind types.AlertKind) []string {
	switch kind {
	case types.AlertKindAlert:
		return d.cfg.AlertLines
	case types.AlertKindDiagnostic:
		return []string{
			d.cfg.DiagnosticHeader,
			"- Signal: " + strconvx.Itoa(d.sess.Signal) + "%",
			"- Network: " + d.sess.Operator,
			"- Model: " + d.sess.Model,
			"- Sms sent: " + d.smsSent.Format(smsSuffix+strconvx.Itoa(int(d.cfg.SIMCredit))),
			"- Boot count: " + d.bootCount.Format(bootSuffix),
		}
	default:
		return nil
	}
}

// SendSMS submits one text-mode SMS to number. Success means the modem's
// reply within the acknowledgement window contained OK. Quota refusals are
// returned without touching the UART.
func (d *Device) SendSMS(kind types.AlertKind, number string) error {
	if err := d.gate(number); err != nil {
		d.log.Printf("sim800l: sms to %s refused: %v", number, err)
		return err
	}
	d.attempts++

	if err := d.writeLine("AT+CMGF=1"); err != nil {
		return errcode.Wrap(errcode.SendFailed, "send_sms", err)
	}
	d.drain()
	if err := d.writeLine(`AT+CMGS="` + number + `"`); err != nil {
		return errcode.Wrap(errcode.SendFailed, "send_sms", err)
	}
	d.drain()
	for _, line := range d.Body(kind) {
		if err := d.writeLine(line); err != nil {
			return errcode.Wrap(errcode.SendFailed, "send_sms", err)
		}
	}
	if _, err := d.uart.Write([]byte{ctrlZ}); err != nil {
		return errcode.Wrap(errcode.SendFailed, "send_sms", err)
	}
	d.drain()

	if !Verify(d.capture(d.cfg.AckWindow)) {
		d.log.Printf("sim800l: sms to %s not acknowledged", number)
		return &errcode.E{C: errcode.SendFailed, Op: "send_sms", Msg: number}
	}
	d.log.Printf("sim800l: sms sent to %s", number)
	return nil
}
