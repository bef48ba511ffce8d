package types

// ------------------------
// Alert kinds
// ------------------------

// AlertKind selects the message template and whether diagnostics are gathered.
type AlertKind uint8

const (
	AlertKindNone AlertKind = iota
	AlertKindAlert
	AlertKindDiagnostic
)

func (k AlertKind) String() string {
	switch k {
	case AlertKindAlert:
		return "alert"
	case AlertKindDiagnostic:
		return "diagnostic"
	default:
		return "none"
	}
}

// ------------------------
// Wake cause
// ------------------------

// WakeCause is the platform-reported reason for this boot. Read once, never stored.
type WakeCause uint8

const (
	WakeColdBoot WakeCause = iota
	WakeTimer
	WakeButton
)

func (w WakeCause) String() string {
	switch w {
	case WakeTimer:
		return "timer"
	case WakeButton:
		return "button"
	default:
		return "cold_boot"
	}
}

// ------------------------
// Status indicator
// ------------------------

// Color is the logical state shown on the single status LED.
type Color uint8

const (
	ColorOff    Color = iota
	ColorOrange       // sending alert
	ColorBlue         // sending diagnostic
	ColorGreen        // success
	ColorRed          // error
)

func (c Color) String() string {
	switch c {
	case ColorOrange:
		return "orange"
	case ColorBlue:
		return "blue"
	case ColorGreen:
		return "green"
	case ColorRed:
		return "red"
	default:
		return "off"
	}
}

// ColorFor maps an alert kind to the colour shown while it is being sent.
// AlertKindNone leaves the indicator unchanged and reports ok=false.
func ColorFor(k AlertKind) (Color, bool) {
	switch k {
	case AlertKindAlert:
		return ColorOrange, true
	case AlertKindDiagnostic:
		return ColorBlue, true
	default:
		return ColorOff, false
	}
}

// RGB returns the LED drive levels for c. Channels are kept well below full
// scale to save battery.
func (c Color) RGB() (r, g, b uint8) {
	switch c {
	case ColorOrange:
		return 175, 35, 0
	case ColorGreen:
		return 0, 155, 0
	case ColorBlue:
		return 0, 0, 175
	case ColorRed:
		return 155, 0, 0
	default:
		return 0, 0, 0
	}
}
