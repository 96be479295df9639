package esp01

import (
	"fmt"
	"sync"
)

// Session tracks whichever handle is current for one module and serializes
// access to it, checking at run time what the handle types enforce at
// compile time. It is meant for callers, such as network servers, that
// cannot know the module's state statically.
//
// Replies are copied out of the scratch buffer before they are returned.
type Session struct {
	mu  sync.Mutex
	cur Module
}

func NewSession(d *Device) *Session {
	return &Session{cur: d}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.State()
}

func (s *Session) Version() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, err := s.cur.Version()
	return string(resp), err
}

func (s *Session) FirmwareInfo() (FirmwareInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.FirmwareInfo()
}

func (s *Session) Mode(q QueryMode) (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Mode(q)
}

func (s *Session) SetMode(mode Mode, persist Persist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.cur.SetMode(mode, persist)
	if err != nil {
		return err
	}
	s.cur = next
	return nil
}

func (s *Session) StationMAC(q QueryMode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, err := s.cur.StationMAC(q)
	return string(resp), err
}

func (s *Session) SetStationMAC(mac string, persist Persist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.cur.SetStationMAC(mac, persist)
	return err
}

func (s *Session) ConnectAP(ssid, password string, persist Persist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.cur.(*Station)
	if !ok {
		return s.invalid("connect to access point")
	}
	next, err := st.ConnectAP(ssid, password, persist)
	if err != nil {
		return err
	}
	s.cur = next
	return nil
}

func (s *Session) DisconnectAP() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.cur.(*ConnectedStation)
	if !ok {
		return s.invalid("disconnect from access point")
	}
	next, err := cs.DisconnectAP()
	if err != nil {
		return err
	}
	s.cur = next
	return nil
}

func (s *Session) SetAutoConnect(enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.cur.(*ConnectedStation)
	if !ok {
		return s.invalid("set autoconnect")
	}
	return cs.SetAutoConnect(enable)
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Close()
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s in state %s", ErrInvalidState, op, s.cur.State())
}
