package esp01

import "errors"

var (
	// ErrSerialRead is returned when the transport fails to deliver a byte.
	ErrSerialRead = errors.New("could not read from serial port")

	// ErrSerialWrite is returned when the transport fails to accept a byte
	// or to flush the command line.
	ErrSerialWrite = errors.New("could not write to serial port")

	// ErrCommandError is returned when the module answers ERROR, which
	// means the command or its parameters were malformed.
	ErrCommandError = errors.New("invalid command or command parameters")

	// ErrCommandFailed is returned when the module answers FAIL. The command
	// was well formed but could not be carried out (for example a wrong
	// access point password).
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandReadFail is returned when the bytes read back from the module
	// do not match the echo or value prefix of the command just sent, or
	// when a reply is not shaped as expected.
	//
	// The exchange is abandoned at the first mismatching byte.
	ErrCommandReadFail = errors.New("command read back failure")

	// ErrConsumed is returned when a handle is used after a state transition
	// moved its transport into a new handle, or after Close.
	ErrConsumed = errors.New("handle already consumed")

	// ErrInvalidState is returned by a Session when an operation is not
	// available in the module's current connection state.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInvalidMode is returned for a Wi-Fi mode outside 1..3. Nothing is
	// written to the module.
	ErrInvalidMode = errors.New("invalid Wi-Fi mode")

	// ErrNoDialer is returned when a Device is constructed from a Config
	// without a Dialer.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when a Device would be built over a nil
	// transport, or used after being built over one.
	ErrNotInitialized = errors.New("module not initialized")
)
