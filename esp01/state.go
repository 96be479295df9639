package esp01

import (
	"context"
	"log/slog"
)

// State is the association state of a module as tracked by its handle type.
type State int

const (
	// StateUnknown is the state of a freshly constructed Device.
	StateUnknown State = iota
	// StateStationDisconnected follows a successful SetMode.
	StateStationDisconnected
	// StateStationConnected follows a successful ConnectAP.
	StateStationConnected
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateStationDisconnected:
		return "station-disconnected"
	case StateStationConnected:
		return "station-connected"
	default:
		return "invalid"
	}
}

// Module is the set of operations available whatever the connection state.
// *Device, *Station and *ConnectedStation all implement it.
type Module interface {
	State() State
	Version() ([]byte, error)
	FirmwareInfo() (FirmwareInfo, error)
	Mode(q QueryMode) (Mode, error)
	SetMode(mode Mode, persist Persist) (*Station, error)
	SetStationMAC(mac string, persist Persist) ([]byte, error)
	StationMAC(q QueryMode) ([]byte, error)
	Close() error
}

// Device is a module whose Wi-Fi mode has not been set through this driver.
type Device struct {
	*driver
}

// Station is a module in station mode that is not joined to an access point.
type Station struct {
	*driver
}

// ConnectedStation is a module in station mode joined to an access point.
type ConnectedStation struct {
	*driver
}

var (
	_ Module = (*Device)(nil)
	_ Module = (*Station)(nil)
	_ Module = (*ConnectedStation)(nil)
)

func (*Device) State() State           { return StateUnknown }
func (*Station) State() State          { return StateStationDisconnected }
func (*ConnectedStation) State() State { return StateStationConnected }

// NewDevice returns a driver for the module reachable through t. A nil
// logger discards driver logs.
func NewDevice(t Transport, logger *slog.Logger) *Device {
	return &Device{newDriver(t, logger)}
}

// New dials the module described by config and returns its Device.
func New(ctx context.Context, config Config) (*Device, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}
	config.Logger.Debug("Module transport established")
	return NewDevice(transport, config.Logger), nil
}
