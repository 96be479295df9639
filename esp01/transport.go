package esp01

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=esp01

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"go.bug.st/serial"
)

// ErrWouldBlock is returned by a Transport when the byte cannot be read or
// written yet. The driver retries the same operation until it succeeds or
// fails with any other error.
var ErrWouldBlock = errors.New("transport not ready")

// Transport is the byte-level link to an ESP-01 module.
//
// ReadByte and WriteByte either complete, return ErrWouldBlock, or return a
// permanent error. Flush pushes written bytes onto the wire. A Transport
// never enforces a timeout of its own on behalf of the driver; a transport
// that keeps returning ErrWouldBlock blocks the driver indefinitely.
type Transport interface {
	io.ByteReader
	io.ByteWriter
	Flush() error
}

// Dialer opens a Transport to a module.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It
	// should respect cancellation of the context and returns an error if the
	// transport cannot be established.
	Dial(ctx context.Context) (Transport, error)
}

// StreamTransport adapts a byte stream such as a serial port to Transport.
type StreamTransport struct {
	rw  io.ReadWriter
	one [1]byte
}

// NewStreamTransport returns a Transport reading and writing rw one byte at a
// time.
func NewStreamTransport(rw io.ReadWriter) *StreamTransport {
	return &StreamTransport{rw: rw}
}

func (s *StreamTransport) ReadByte() (byte, error) {
	n, err := s.rw.Read(s.one[:])
	if n == 1 {
		return s.one[0], nil
	}
	if err == nil || notReady(err) {
		// go.bug.st/serial reports a read timeout as (0, nil)
		return 0, ErrWouldBlock
	}
	return 0, err
}

func (s *StreamTransport) WriteByte(c byte) error {
	s.one[0] = c
	n, err := s.rw.Write(s.one[:])
	if n == 1 {
		return nil
	}
	if err == nil || notReady(err) {
		return ErrWouldBlock
	}
	return err
}

// Flush waits for written bytes to leave the stream when it knows how.
func (s *StreamTransport) Flush() error {
	switch f := s.rw.(type) {
	case interface{ Drain() error }:
		return f.Drain()
	case interface{ Flush() error }:
		return f.Flush()
	}
	return nil
}

// Close closes the underlying stream if it is an io.Closer.
func (s *StreamTransport) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func notReady(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EINTR)
}

const (
	// DefaultBaudRate is the factory UART speed of the ESP-01 AT firmware.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single serial read; an expired read is
	// reported to the driver as ErrWouldBlock.
	DefaultReadTimeout = time.Second
)

// SerialDialer opens a module over a local serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the path of the serial device, e.g. "/dev/ttyUSB0".
	PortName string
	// Mode overrides the default 115200 8N1 line settings.
	Mode *serial.Mode
	// ReadTimeout overrides DefaultReadTimeout.
	ReadTimeout time.Duration
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("esp01: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("esp01: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = &serial.Mode{
			BaudRate: DefaultBaudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("esp01: open serial port %s: %w", d.PortName, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("esp01: set read timeout on %s: %w", d.PortName, err)
	}
	return NewStreamTransport(port), nil
}
