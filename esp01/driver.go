package esp01

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"i4.energy/across/esp01ctl/at"
)

// BufferSize is the capacity of the scratch buffer a reply is read into. A
// reply that does not terminate within BufferSize bytes is truncated.
const BufferSize = 512

// driver owns the link to one module. Exactly one handle refers to a live
// driver at any time; a state transition moves the transport and the scratch
// buffer into a fresh driver and leaves the old one empty.
type driver struct {
	// transport is nil once the driver has been moved or closed
	transport Transport
	// buf holds the reply to the command in flight
	buf *[BufferSize]byte
	log *slog.Logger
}

func newDriver(t Transport, log *slog.Logger) *driver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &driver{
		transport: t,
		buf:       new([BufferSize]byte),
		log:       log,
	}
}

// ready reports whether d still owns a transport. A moved or closed driver
// has given up its buffer too; one that never had a transport has not.
func (d *driver) ready() error {
	switch {
	case d.transport != nil:
		return nil
	case d.buf != nil:
		return ErrNotInitialized
	default:
		return ErrConsumed
	}
}

// move hands the transport and buffer to a new driver. d is unusable
// afterwards.
func (d *driver) move() *driver {
	next := &driver{transport: d.transport, buf: d.buf, log: d.log}
	d.transport, d.buf = nil, nil
	return next
}

// writeByte blocks until the transport accepts b or fails permanently.
func (d *driver) writeByte(b byte) error {
	for {
		err := d.transport.WriteByte(b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return fmt.Errorf("%w: %w", ErrSerialWrite, err)
		}
	}
}

// readByte blocks until the transport delivers a byte or fails permanently.
func (d *driver) readByte() (byte, error) {
	for {
		b, err := d.transport.ReadByte()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return 0, fmt.Errorf("%w: %w", ErrSerialRead, err)
		}
	}
}

func (d *driver) flush() error {
	for {
		err := d.transport.Flush()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return fmt.Errorf("%w: %w", ErrSerialWrite, err)
		}
	}
}

func (d *driver) write(p []byte) error {
	for _, b := range p {
		if err := d.writeByte(b); err != nil {
			return err
		}
	}
	return d.flush()
}

// readBack consumes len(want) bytes and stops at the first one that differs.
func (d *driver) readBack(want []byte) error {
	for _, w := range want {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		if b != w {
			return ErrCommandReadFail
		}
	}
	return nil
}

// sendCommand writes AT+<parts> and verifies the module's echo of it.
func (d *driver) sendCommand(parts ...string) error {
	if err := d.ready(); err != nil {
		return err
	}
	d.log.Debug("Sending command", "cmd", commandName(parts))
	if err := d.write(at.Encode(false, parts...)); err != nil {
		return err
	}
	return d.readBack(at.Echo(false, parts...))
}

// sendQuery writes AT+<parts>?, verifies the echo and the +<parts>: value
// prefix, then reads the value up to its terminator.
func (d *driver) sendQuery(parts ...string) ([]byte, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	d.log.Debug("Sending query", "cmd", commandName(parts))
	if err := d.write(at.Encode(true, parts...)); err != nil {
		return nil, err
	}
	if err := d.readBack(at.Echo(true, parts...)); err != nil {
		return nil, err
	}
	if err := d.readBack(at.ValuePrefix(parts...)); err != nil {
		return nil, err
	}
	return d.readResponse()
}

// readResponse reads the reply to the last command into the scratch buffer.
//
// The returned slice aliases the buffer and is only valid until the next
// command. When the buffer fills up before any terminator is seen, the whole
// buffer is returned without an error.
func (d *driver) readResponse() ([]byte, error) {
	buf := d.buf[:]
	i := 0
	for i < len(buf) {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		if b == at.LF {
			typ, end := at.Classify(buf[:i])
			switch typ {
			case at.TypeOK:
				d.log.Debug("Received response", "type", typ, "length", end)
				return buf[:end], nil
			case at.TypeError:
				d.log.Debug("Received response", "type", typ)
				return nil, ErrCommandError
			case at.TypeFail:
				d.log.Debug("Received response", "type", typ)
				return nil, ErrCommandFailed
			}
		}
		buf[i] = b
		i++
	}
	d.log.Warn("Response truncated at buffer capacity", "size", i)
	return buf[:i], nil
}

// exec runs a plain command and returns its reply.
func (d *driver) exec(parts ...string) ([]byte, error) {
	if err := d.sendCommand(parts...); err != nil {
		return nil, fmt.Errorf("AT+%s: %w", commandName(parts), err)
	}
	resp, err := d.readResponse()
	if err != nil {
		return nil, fmt.Errorf("AT+%s: %w", commandName(parts), err)
	}
	return resp, nil
}

// query runs a query command and returns its value.
func (d *driver) query(parts ...string) ([]byte, error) {
	resp, err := d.sendQuery(parts...)
	if err != nil {
		return nil, fmt.Errorf("AT+%s?: %w", strings.Join(parts, ""), err)
	}
	return resp, nil
}

// commandName is the part of a command that is safe to log: its name without
// parameters, which may carry credentials.
func commandName(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSuffix(parts[0], "=")
}

// Close closes the transport if it is an io.Closer and consumes the handle.
func (d *driver) Close() error {
	if err := d.ready(); err != nil {
		return err
	}
	t := d.transport
	d.transport, d.buf = nil, nil
	if c, ok := t.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
