package sim800l

import (
	"strings"

	"leakguard-go/x/mathx"
	"leakguard-go/x/strconvx"
	"leakguard-go/x/strx"
)

// Reply markers.
const (
	markerOK    = "OK"
	markerCSQ   = "CSQ:"
	markerModel = "SIM"
)

// modelLen is the length of a "SIMxxx Rxx.xx" identity token.
const modelLen = 13

// rssiMax is the top of the AT+CSQ rssi scale; 99 means "not detectable".
const rssiMax = 31

// Verify reports whether a raw capture acknowledges success: "OK" anywhere.
func Verify(resp string) bool {
	return strings.Contains(resp, markerOK)
}

// ParseInt parses a decimal integer. Invalid or out-of-range input yields
// (0, false); it never panics.
func ParseInt(s string) (int, bool) {
	v, err := strconvx.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseSignalQuality extracts the rssi following "CSQ: " and rescales it
// from 0..31 to 0..100. A missing marker, unparsable text or an rssi outside
// 0..31 (including 99, unknown) yields 0.
//
//	"+CSQ: 15,0\r\n\r\nOK" -> 48
//	"+CSQ: 5,0\r\n\r\nOK"  -> 16
func ParseSignalQuality(resp string) int {
	i := strings.Index(resp, markerCSQ)
	if i < 0 {
		return 0
	}
	raw := strx.Sub(resp, i+len(markerCSQ)+1, 2)
	if len(raw) == 2 && raw[1] == ',' {
		raw = raw[:1]
	}
	rssi, ok := ParseInt(raw)
	if !ok || !mathx.Between(rssi, 0, rssiMax) {
		return 0
	}
	return mathx.Map(rssi, 0, rssiMax, 0, 100)
}

// ParseModelName returns the 13-character identity token starting at "SIM"
// (e.g. "SIM800 R14.18"), cut short at a line break.
func ParseModelName(resp string) (string, bool) {
	i := strings.Index(resp, markerModel)
	if i < 0 {
		return "", false
	}
	name := strx.Sub(resp, i, modelLen)
	if j := strings.IndexAny(name, "\r\n"); j >= 0 {
		name = name[:j]
	}
	return name, true
}

// ParseOperator returns the text between the first and last double quote of
// an AT+COPS? reply.
func ParseOperator(resp string) (string, bool) {
	return strx.Quoted(resp)
}
