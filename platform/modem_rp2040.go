//go:build rp2040

package platform

import (
	"context"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// ModemPort is the modem UART on UART1.
type ModemPort struct {
	*rxBuffer
	u      *uartx.UART
	tx, rx machine.Pin
}

func NewModemPort(tx, rx machine.Pin) *ModemPort {
	return &ModemPort{rxBuffer: newRxBuffer(256), u: uartx.UART1, tx: tx, rx: rx}
}

// Configure sets pins and baud (8N1) and (re)starts the receive pump.
func (m *ModemPort) Configure(baud uint32) error {
	if err := m.u.Configure(uartx.UARTConfig{BaudRate: baud, TX: m.tx, RX: m.rx}); err != nil {
		return err
	}
	m.start(context.Background(), m.u.RecvSomeContext)
	return nil
}

func (m *ModemPort) Write(p []byte) (int, error) { return m.u.Write(p) }
