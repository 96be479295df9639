package esp01

import (
	"bytes"
	"fmt"
	"strconv"
)

// Mode is the Wi-Fi operating mode set with AT+CWMODE.
type Mode int

const (
	ModeStation      Mode = 1
	ModeSoftAP       Mode = 2
	ModeStationAndAP Mode = 3
)

func (m Mode) valid() bool {
	return m >= ModeStation && m <= ModeStationAndAP
}

func (m Mode) String() string {
	switch m {
	case ModeStation:
		return "station"
	case ModeSoftAP:
		return "softap"
	case ModeStationAndAP:
		return "station+softap"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode accepts the names returned by Mode.String and the numeric AT
// values 1, 2 and 3.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeStation, ModeSoftAP, ModeStationAndAP} {
		if s == m.String() || s == strconv.Itoa(int(m)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Persist selects whether a setting is kept in RAM only or also written to
// flash.
type Persist int

const (
	DontSave Persist = iota
	SaveInFlash
)

func (p Persist) suffix() string {
	if p == SaveInFlash {
		return "_DEF="
	}
	return "_CUR="
}

// QueryMode selects whether a query reads the running or the flash value.
type QueryMode int

const (
	Current QueryMode = iota
	SavedInFlash
)

func (q QueryMode) suffix() string {
	if q == SavedInFlash {
		return "_DEF"
	}
	return "_CUR"
}

// Version returns the firmware version banner reported by AT+GMR.
//
// Like every reply returned by this package, the slice is only valid until
// the next command is sent on the same handle.
func (d *driver) Version() ([]byte, error) {
	return d.exec("GMR")
}

// Mode reads the Wi-Fi mode.
func (d *driver) Mode(q QueryMode) (Mode, error) {
	resp, err := d.query("CWMODE", q.suffix())
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(resp)))
	if err != nil || !Mode(n).valid() {
		return 0, fmt.Errorf("AT+CWMODE%s?: %w: unexpected mode %q", q.suffix(), ErrCommandReadFail, resp)
	}
	return Mode(n), nil
}

// SetMode sets the Wi-Fi mode and returns the module as a Station. The
// receiver is consumed on success and left usable on failure.
func (d *driver) SetMode(mode Mode, persist Persist) (*Station, error) {
	if !mode.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(mode))
	}
	if _, err := d.exec("CWMODE", persist.suffix(), strconv.Itoa(int(mode))); err != nil {
		return nil, err
	}
	d.log.Debug("Wi-Fi mode set", "mode", mode, "state", StateStationDisconnected)
	return &Station{d.move()}, nil
}

// SetStationMAC sets the MAC address of the station interface.
func (d *driver) SetStationMAC(mac string, persist Persist) ([]byte, error) {
	return d.exec("CIPSTAMAC", persist.suffix(), `"`, mac, `"`)
}

// StationMAC reads the MAC address of the station interface, without quotes.
func (d *driver) StationMAC(q QueryMode) ([]byte, error) {
	resp, err := d.query("CIPSTAMAC", q.suffix())
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 || resp[0] != '"' || resp[len(resp)-1] != '"' {
		return nil, fmt.Errorf("AT+CIPSTAMAC%s?: %w: unquoted value %q", q.suffix(), ErrCommandReadFail, resp)
	}
	return resp[1 : len(resp)-1], nil
}

// ConnectAP joins the access point ssid. The receiver is consumed on success
// and left usable on failure.
func (s *Station) ConnectAP(ssid, password string, persist Persist) (*ConnectedStation, error) {
	if _, err := s.exec("CWJAP", persist.suffix(), `"`, ssid, `","`, password, `"`); err != nil {
		return nil, err
	}
	s.log.Debug("Joined access point", "ssid", ssid, "state", StateStationConnected)
	return &ConnectedStation{s.move()}, nil
}

// DisconnectAP leaves the access point. The receiver is consumed on success
// and left usable on failure.
func (c *ConnectedStation) DisconnectAP() (*Station, error) {
	if _, err := c.exec("CWQAP"); err != nil {
		return nil, err
	}
	c.log.Debug("Left access point", "state", StateStationDisconnected)
	return &Station{c.move()}, nil
}

// SetAutoConnect enables or disables joining the saved access point on power
// up. The setting is always written to flash.
func (c *ConnectedStation) SetAutoConnect(enable bool) error {
	param := "0"
	if enable {
		param = "1"
	}
	_, err := c.exec("CWAUTOCONN=", param)
	return err
}
