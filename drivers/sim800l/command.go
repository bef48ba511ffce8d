package sim800l

import (
	"strings"
	"time"
)

// maxCapture bounds one captured response; anything beyond is discarded.
const maxCapture = 512

// writeLine sends s terminated with CRLF.
func (d *Device) writeLine(s string) error {
	_, err := d.uart.Write([]byte(s + "\r\n"))
	return err
}

// capture waits the settle window (plus extra) and returns everything the
// modem buffered in the meantime.
func (d *Device) capture(extra time.Duration) string {
	d.clock.Sleep(d.cfg.ResponseSettle + extra)
	if d.uart.Buffered() <= 0 {
		return ""
	}
	var b strings.Builder
	for d.uart.Buffered() > 0 {
		n, err := d.uart.Read(d.buf[:])
		if n > 0 && b.Len() < maxCapture {
			b.Write(d.buf[:n])
		}
		if err != nil || n == 0 {
			break
		}
	}
	return b.String()
}

// drain waits the settle window and discards whatever arrived. Used after
// the SMS mode and address commands, whose replies would otherwise pollute
// the acknowledgement capture.
func (d *Device) drain() {
	d.clock.Sleep(d.cfg.ResponseSettle)
	for d.uart.Buffered() > 0 {
		n, err := d.uart.Read(d.buf[:])
		if err != nil || n == 0 {
			return
		}
	}
}

// sendAndVerify writes cmd and reports whether the reply contains OK.
func (d *Device) sendAndVerify(cmd string, extra time.Duration) (string, bool) {
	if err := d.writeLine(cmd); err != nil {
		d.log.Printf("sim800l: write %q: %v", cmd, err)
		return "", false
	}
	resp := d.capture(extra)
	return resp, Verify(resp)
}
