//go:build !rp2040

package platform

import (
	"context"
	"io"
	"sync"

	"github.com/jacobsa/go-serial/serial"

	"leakguard-go/errcode"
)

// SerialModem is a modem on a host serial device (e.g. /dev/ttyUSB0).
// Configure (re)opens the device; reads are pumped into a buffer.
type SerialModem struct {
	*rxBuffer
	name string
	open func(serial.OpenOptions) (io.ReadWriteCloser, error)

	mu   sync.Mutex
	port io.ReadWriteCloser
}

func NewSerialModem(name string) *SerialModem {
	return &SerialModem{rxBuffer: newRxBuffer(1024), name: name, open: serial.Open}
}

func (s *SerialModem) Configure(baud uint32) error {
	s.Close()
	port, err := s.open(serial.OpenOptions{
		PortName:              s.name,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100, // ms; lets the pump notice shutdown
	})
	if err != nil {
		return errcode.Wrap(errcode.Error, "serial_open", err)
	}
	s.mu.Lock()
	s.port = port
	s.mu.Unlock()
	s.start(context.Background(), func(_ context.Context, p []byte) (int, error) {
		return port.Read(p)
	})
	return nil
}

func (s *SerialModem) Write(p []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, &errcode.E{C: errcode.NotPowered, Op: "serial_write", Msg: s.name}
	}
	return port.Write(p)
}

// Close stops the pump and releases the device.
func (s *SerialModem) Close() error {
	s.stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
