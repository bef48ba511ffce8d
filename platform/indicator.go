package platform

import (
	"image/color"

	"leakguard-go/types"
)

// ColorWriter drives a chain of RGB LEDs; ws2812.Device satisfies it.
type ColorWriter interface {
	WriteColors(buf []color.RGBA) error
}

// LED is the single status pixel.
type LED struct {
	w   ColorWriter
	buf [1]color.RGBA
	cur types.Color
}

func NewLED(w ColorWriter) *LED { return &LED{w: w} }

// Show sets the pixel to c. Write errors are ignored; the LED is cosmetic.
func (l *LED) Show(c types.Color) {
	r, g, b := c.RGB()
	l.buf[0] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	l.cur = c
	_ = l.w.WriteColors(l.buf[:])
}

// Current returns the colour last shown.
func (l *LED) Current() types.Color { return l.cur }
