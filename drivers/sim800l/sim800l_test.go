package sim800l

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"leakguard-go/drivers/sim800l/sim800ltest"
	"leakguard-go/errcode"
	"leakguard-go/services/counters"
	"leakguard-go/types"
	"leakguard-go/x/timex"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newFakeModem() (*sim800ltest.Modem, *sim800ltest.Power, *timex.Fake) {
	clk := timex.NewFake(epoch)
	m := sim800ltest.NewModem(clk)
	return m, m.Power, clk
}

type fakeIndicator struct{ shown []types.Color }

func (f *fakeIndicator) Show(c types.Color) { f.shown = append(f.shown, c) }

func newCounters(t *testing.T, boot, sms byte) *counters.Store {
	t.Helper()
	s := counters.New(&counters.MemMedium{Committed: []byte{boot, sms}})
	if err := s.Begin(); err != nil {
		t.Fatalf("counters Begin: %v", err)
	}
	return s
}

func newDevice(m *sim800ltest.Modem, cfg Config, opts ...Option) *Device {
	opts = append([]Option{WithClock(m.Clock)}, opts...)
	return New(m, m.Power, cfg, opts...)
}

func smsConfig(recipients ...string) Config {
	return Config{SMSEnabled: true, Recipients: recipients}
}

// ---- Begin ----

func TestBeginHandshake(t *testing.T) {
	m, pwr, clk := newFakeModem()
	m.Ready()
	ind := &fakeIndicator{}
	d := newDevice(m, Config{}, WithIndicator(ind))

	if err := d.Begin(types.AlertKindDiagnostic); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	s := d.Session()
	if s.State != StateSimVerified || !s.Powered || !s.Up() {
		t.Fatalf("session = %+v", s)
	}
	if !pwr.On {
		t.Fatalf("modem power not asserted")
	}
	if !reflect.DeepEqual(m.Configured, []uint32{9600}) {
		t.Fatalf("configured = %v", m.Configured)
	}
	if !reflect.DeepEqual(m.Lines, []string{"AT", "AT+CCID"}) {
		t.Fatalf("lines = %q", m.Lines)
	}
	if len(clk.Sleeps) == 0 || clk.Sleeps[0] != 8*time.Second {
		t.Fatalf("first sleep = %v, want power settle", clk.Sleeps)
	}
	if !reflect.DeepEqual(ind.shown, []types.Color{types.ColorBlue}) {
		t.Fatalf("indicator = %v", ind.shown)
	}
}

func TestBeginNoResponse(t *testing.T) {
	m, _, _ := newFakeModem()
	d := newDevice(m, Config{})
	err := d.Begin(types.AlertKindNone)
	if errcode.Of(err) != errcode.HandshakeFailed {
		t.Fatalf("err = %v, want handshake_failed", err)
	}
	if d.Session().Up() {
		t.Fatalf("session up without handshake")
	}
	if m.Sent("AT+CCID") {
		t.Fatalf("SIM queried after failed handshake")
	}
}

func TestBeginNoSIM(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	m.Script["AT+CCID"] = []string{"AT+CCID\r\r\nERROR\r\n"}
	d := newDevice(m, Config{})
	if err := d.Begin(types.AlertKindNone); errcode.Of(err) != errcode.SimNotFound {
		t.Fatalf("err = %v, want sim_not_found", err)
	}
}

func TestPowerOff(t *testing.T) {
	m, pwr, _ := newFakeModem()
	m.Ready()
	d := newDevice(m, Config{})
	if err := d.Begin(types.AlertKindNone); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	d.PowerOff()
	if pwr.On || m.Flushes != 1 {
		t.Fatalf("power=%v flushes=%d", pwr.On, m.Flushes)
	}
	if s := d.Session(); s.State != StatePoweredOff || s.Powered {
		t.Fatalf("session after PowerOff = %+v", s)
	}
}

// ---- Diagnostics ----

func TestDiagnosticGetters(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	m.Script["AT+CSQ"] = []string{"+CSQ: 15,0\r\n\r\nOK\r\n"}
	d := newDevice(m, Config{})
	if err := d.Begin(types.AlertKindNone); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := d.SignalStrength(); got != 48 {
		t.Fatalf("SignalStrength = %d", got)
	}
	if got := d.ModelName(); got != "SIM800 R14.18" {
		t.Fatalf("ModelName = %q", got)
	}
	if got := d.NetworkOperator(context.Background()); got != "Vodafone UK" {
		t.Fatalf("NetworkOperator = %q", got)
	}
}

func TestDiagnosticGettersDegrade(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	m.Script["AT+CSQ"] = []string{"ERROR\r\n"}
	m.Script["ATI"] = []string{"ERROR\r\n"}
	m.Script["AT+COPS?"] = []string{"+COPS: 0\r\n\r\nOK\r\n"}
	d := newDevice(m, Config{})
	if err := d.Begin(types.AlertKindNone); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	start := m.Clock.Now()
	if got := d.SignalStrength(); got != 0 {
		t.Fatalf("SignalStrength = %d", got)
	}
	if got := d.ModelName(); got != Undefined {
		t.Fatalf("ModelName = %q", got)
	}
	if got := d.NetworkOperator(context.Background()); got != Undefined {
		t.Fatalf("NetworkOperator = %q", got)
	}
	if n := m.Count("AT+COPS?"); n < 2 {
		t.Fatalf("operator queried %d times, want retries", n)
	}
	if el := m.Clock.Now().Sub(start); el < 10*time.Second {
		t.Fatalf("operator gave up after %v", el)
	}
}

// ---- SendMessage ----

func TestSendMessageAlert(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	store := newCounters(t, 1, 4)
	ind := &fakeIndicator{}
	d := newDevice(m, smsConfig("+447700900001", "+447700900002"),
		WithCounters(store), WithIndicator(ind))

	if err := d.SendMessage(context.Background(), types.AlertKindAlert); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if m.Sent("ATI") || m.Sent("AT+COPS?") {
		t.Fatalf("alert path gathered diagnostics: %q", m.Lines)
	}
	if m.Count("^Z") != 2 {
		t.Fatalf("submissions = %d, want 2", m.Count("^Z"))
	}
	for _, n := range []string{`AT+CMGS="+447700900001"`, `AT+CMGS="+447700900002"`} {
		if !m.Sent(n) {
			t.Fatalf("missing %s in %q", n, m.Lines)
		}
	}
	if got := m.Body(); !reflect.DeepEqual(got, []string{"WARNING!", "Water leak detected!"}) {
		t.Fatalf("body = %q", got)
	}
	if got := store.Read(types.CounterSmsSent); got != 6 {
		t.Fatalf("SmsSent = %d, want 4+2", got)
	}
	if got := store.Read(types.CounterBootCount); got != 1 {
		t.Fatalf("BootCount touched on alert path: %d", got)
	}
	if d.Session().State != StateConnected {
		t.Fatalf("state = %v", d.Session().State)
	}
	if len(ind.shown) != 1 || ind.shown[0] != types.ColorOrange {
		t.Fatalf("indicator = %v", ind.shown)
	}
}

func TestSendMessageDiagnosticBody(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	store := newCounters(t, 3, 4)
	d := newDevice(m, smsConfig("+447700900001"), WithCounters(store))

	if err := d.SendMessage(context.Background(), types.AlertKindDiagnostic); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	want := []string{
		"Status!",
		"- Signal: 48%",
		"- Network: Vodafone UK",
		"- Model: SIM800 R14.18",
		"- Sms sent: 5/30",
		"- Boot count: 3 (resets to 0)",
	}
	if got := m.Body(); !reflect.DeepEqual(got, want) {
		t.Fatalf("body =\n%q\nwant\n%q", got, want)
	}
	if got := store.Read(types.CounterBootCount); got != 0 {
		t.Fatalf("BootCount after diagnostic = %d, want reset", got)
	}
	if got := store.Read(types.CounterSmsSent); got != 5 {
		t.Fatalf("SmsSent = %d", got)
	}
}

func TestSendMessageDiagnosticStorageFailed(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	store := counters.New(&counters.MemMedium{FailBegin: true})
	_ = store.Begin()
	d := newDevice(m, smsConfig("+447700900001"), WithCounters(store))

	if err := d.SendMessage(context.Background(), types.AlertKindDiagnostic); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	body := m.Body()
	if body[4] != "- Sms sent: storage failed!" || body[5] != "- Boot count: storage failed!" {
		t.Fatalf("body = %q", body)
	}
}

func TestSendMessageConnectTimeout(t *testing.T) {
	m, _, clk := newFakeModem()
	m.Ready()
	m.Script["AT+CSQ"] = []string{"+CSQ: 99,99\r\n\r\nOK\r\n"}
	store := newCounters(t, 0, 0)
	d := newDevice(m, smsConfig("+447700900001"), WithCounters(store))

	err := d.SendMessage(context.Background(), types.AlertKindAlert)
	if errcode.Of(err) != errcode.ConnectTimeout {
		t.Fatalf("err = %v, want connect_timeout", err)
	}
	if m.Count("^Z") != 0 || m.Sent("AT+CMGF=1") {
		t.Fatalf("SMS attempted without network: %q", m.Lines)
	}
	if clk.Now().Sub(epoch) < 2*time.Minute {
		t.Fatalf("gave up after %v", clk.Now().Sub(epoch))
	}
	if store.Read(types.CounterSmsSent) != 0 {
		t.Fatalf("SmsSent credited on timeout")
	}
}

func TestSendMessageModemNeverAnswers(t *testing.T) {
	m, _, _ := newFakeModem()
	d := newDevice(m, smsConfig("+447700900001"))

	err := d.SendMessage(context.Background(), types.AlertKindAlert)
	if errcode.Of(err) != errcode.ConnectTimeout {
		t.Fatalf("err = %v, want connect_timeout", err)
	}
	if errcode.Of(errors.Unwrap(err)) != errcode.HandshakeFailed {
		t.Fatalf("cause = %v, want handshake_failed", errors.Unwrap(err))
	}
	if m.Count("AT") < 2 {
		t.Fatalf("begin not retried: %q", m.Lines)
	}
	if m.Sent("AT+CSQ") {
		t.Fatalf("signal polled before handshake")
	}
}

func TestSendMessageCancelled(t *testing.T) {
	m, _, _ := newFakeModem()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := newDevice(m, smsConfig("+447700900001"))
	if err := d.SendMessage(ctx, types.AlertKindAlert); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestSendMessagePartialFailure(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	m.Ack = "\r\nERROR\r\n"
	store := newCounters(t, 0, 2)
	d := newDevice(m, smsConfig("+447700900001", "+447700900002"), WithCounters(store))

	err := d.SendMessage(context.Background(), types.AlertKindAlert)
	if !errcode.Has(err, errcode.SendFailed) {
		t.Fatalf("err = %v, want send_failed", err)
	}
	if m.Count("^Z") != 2 {
		t.Fatalf("second recipient skipped after first failure")
	}
	if store.Read(types.CounterSmsSent) != 2 {
		t.Fatalf("SmsSent credited on failure")
	}
}

// ---- Quota ----

func TestSendSMSDisabledTouchesNothing(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	d := newDevice(m, Config{Recipients: []string{"+447700900001"}})
	err := d.SendSMS(types.AlertKindAlert, "+447700900001")
	if errcode.Of(err) != errcode.SMSDisabled {
		t.Fatalf("err = %v", err)
	}
	if m.Written != 0 {
		t.Fatalf("%d bytes written for a refused send", m.Written)
	}
}

func TestSendSMSEpisodeBudget(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	cfg := smsConfig("+447700900001", "+447700900002")
	cfg.MaxSendsPerEpisode = 1
	store := newCounters(t, 0, 0)
	d := newDevice(m, cfg, WithCounters(store))

	err := d.SendMessage(context.Background(), types.AlertKindAlert)
	if !errcode.Has(err, errcode.QuotaExhausted) {
		t.Fatalf("err = %v, want quota_exhausted", err)
	}
	if m.Count("^Z") != 1 || m.Count("AT+CMGF=1") != 1 {
		t.Fatalf("lines = %q", m.Lines)
	}
	if store.Read(types.CounterSmsSent) != 0 {
		t.Fatalf("SmsSent credited on partial send")
	}
}

func TestSendSMSCreditLimit(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	cfg := smsConfig("+447700900001")
	cfg.EnforceSIMCredit = true
	m.Power.On = true
	store := newCounters(t, 0, 30)
	d := newDevice(m, cfg, WithCounters(store))

	before := m.Written
	if err := d.SendSMS(types.AlertKindAlert, "+447700900001"); errcode.Of(err) != errcode.QuotaExhausted {
		t.Fatalf("err = %v", err)
	}
	if m.Written != before {
		t.Fatalf("refused send reached the UART")
	}

	cfg.EnforceSIMCredit = false
	d = newDevice(m, cfg, WithCounters(store))
	if err := d.SendSMS(types.AlertKindAlert, "+447700900001"); err != nil {
		t.Fatalf("credit enforced while disabled: %v", err)
	}
}

func TestSendSMSWaitsForDelayedAck(t *testing.T) {
	m, _, _ := newFakeModem()
	m.Ready()
	m.Power.On = true
	m.AckDelay = 6 * time.Second
	d := newDevice(m, smsConfig("+447700900001"))
	if err := d.SendSMS(types.AlertKindAlert, "+447700900001"); err != nil {
		t.Fatalf("ack within the window rejected: %v", err)
	}

	m.AckDelay = 9 * time.Second
	d = newDevice(m, smsConfig("+447700900001"))
	err := d.SendSMS(types.AlertKindAlert, "+447700900001")
	var e *errcode.E
	if !errors.As(err, &e) || e.C != errcode.SendFailed || e.Msg != "+447700900001" {
		t.Fatalf("late ack err = %v", err)
	}
}
