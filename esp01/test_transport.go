package esp01

import (
	"bytes"
	"io"
	"sync"
)

// TestTransport is an in-memory Transport standing in for a module in tests.
//
// Bytes queued with SendData are what the module "says". With echo enabled
// every written byte is also sent back the way the AT firmware echoes a
// command line: the CR LF ending the line comes back as CR CR LF. Echoed
// bytes are read before any queued data, so replies for a whole script can
// be queued up front.
type TestTransport struct {
	mu       sync.Mutex
	rx       []byte
	echoed   []byte
	tx       bytes.Buffer
	echo     bool
	stalls   int
	pending  int
	writeErr error
	flushes  int
	closed   bool
}

// NewTestTransport creates a new test transport for testing.
func NewTestTransport() *TestTransport {
	return &TestTransport{}
}

// SendData queues data to be read by the driver.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rx = append(t.rx, data...)
}

// EnableEcho makes the transport echo written bytes like the module does.
func (t *TestTransport) EnableEcho() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.echo = true
}

// Stall makes every read, write and flush report ErrWouldBlock n times
// before it goes through.
func (t *TestTransport) Stall(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stalls = n
	t.pending = n
}

// FailWrites makes every subsequent write fail with err.
func (t *TestTransport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// Written returns everything the driver has written so far.
func (t *TestTransport) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.String()
}

// Unread returns the queued bytes the driver has not consumed.
func (t *TestTransport) Unread() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.echoed) + string(t.rx)
}

// Flushes reports how many times Flush went through.
func (t *TestTransport) Flushes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushes
}

// Closed reports whether Close was called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// stall must be called with mu held.
func (t *TestTransport) stall() bool {
	if t.pending > 0 {
		t.pending--
		return true
	}
	t.pending = t.stalls
	return false
}

// ReadByte returns io.EOF once the queued data is exhausted, so a test never
// blocks forever.
func (t *TestTransport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	if t.stall() {
		return 0, ErrWouldBlock
	}
	if len(t.echoed) > 0 {
		b := t.echoed[0]
		t.echoed = t.echoed[1:]
		return b, nil
	}
	if len(t.rx) == 0 {
		return 0, io.EOF
	}
	b := t.rx[0]
	t.rx = t.rx[1:]
	return b, nil
}

func (t *TestTransport) WriteByte(c byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return io.ErrClosedPipe
	}
	if t.writeErr != nil {
		return t.writeErr
	}
	if t.stall() {
		return ErrWouldBlock
	}
	t.tx.WriteByte(c)
	if t.echo {
		if c == '\n' {
			t.echoed = append(t.echoed, '\r')
		}
		t.echoed = append(t.echoed, c)
	}
	return nil
}

func (t *TestTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return io.ErrClosedPipe
	}
	if t.stall() {
		return ErrWouldBlock
	}
	t.flushes++
	return nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
