package esp01_test

import (
	"errors"
	"testing"

	"i4.energy/across/esp01ctl/esp01"
)

func TestSession(t *testing.T) {
	t.Run("Runtime state checks", func(t *testing.T) {
		d, transport := newModule(t)
		s := esp01.NewSession(d)

		if err := s.ConnectAP("home", "s3cr3t", esp01.DontSave); !errors.Is(err, esp01.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
		if err := s.DisconnectAP(); !errors.Is(err, esp01.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
		if err := s.SetAutoConnect(true); !errors.Is(err, esp01.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got: %v", err)
		}
		if got := transport.Written(); got != "" {
			t.Errorf("rejected operations must not reach the module, got %q", got)
		}
	})

	t.Run("Full lifecycle", func(t *testing.T) {
		d, transport := newModule(t,
			"\r\nOK\r\n",
			"+CIPSTAMAC_CUR:\"18:fe:35:98:d3:7b\"\r\n\r\nOK\r\n",
			"WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n",
			"\r\nOK\r\n",
			"V1.0\r\n\r\nOK\r\n",
			"\r\nOK\r\n",
		)
		s := esp01.NewSession(d)

		if err := s.SetMode(esp01.ModeStation, esp01.DontSave); err != nil {
			t.Fatalf("SetMode(): %v", err)
		}
		if s.State() != esp01.StateStationDisconnected {
			t.Errorf("unexpected state %v", s.State())
		}
		mac, err := s.StationMAC(esp01.Current)
		if err != nil {
			t.Fatalf("StationMAC(): %v", err)
		}
		if err := s.ConnectAP("home", "s3cr3t", esp01.DontSave); err != nil {
			t.Fatalf("ConnectAP(): %v", err)
		}
		if s.State() != esp01.StateStationConnected {
			t.Errorf("unexpected state %v", s.State())
		}
		if err := s.SetAutoConnect(false); err != nil {
			t.Fatalf("SetAutoConnect(): %v", err)
		}
		version, err := s.Version()
		if err != nil {
			t.Fatalf("Version(): %v", err)
		}
		if err := s.DisconnectAP(); err != nil {
			t.Fatalf("DisconnectAP(): %v", err)
		}
		if s.State() != esp01.StateStationDisconnected {
			t.Errorf("unexpected state %v", s.State())
		}

		// copies survive later commands reusing the scratch buffer
		if mac != "18:fe:35:98:d3:7b" {
			t.Errorf("unexpected MAC %q", mac)
		}
		if version != "V1.0" {
			t.Errorf("unexpected version %q", version)
		}

		if err := s.Close(); err != nil {
			t.Fatalf("Close(): %v", err)
		}
		if !transport.Closed() {
			t.Error("expected the transport to be closed")
		}
	})

	t.Run("Failed transition keeps state", func(t *testing.T) {
		d, _ := newModule(t, "\r\nOK\r\n", "+CWJAP:3\r\n\r\nFAIL\r\n")
		s := esp01.NewSession(d)

		if err := s.SetMode(esp01.ModeStation, esp01.DontSave); err != nil {
			t.Fatalf("SetMode(): %v", err)
		}
		if err := s.ConnectAP("nowhere", "x", esp01.DontSave); !errors.Is(err, esp01.ErrCommandFailed) {
			t.Fatalf("expected ErrCommandFailed, got: %v", err)
		}
		if s.State() != esp01.StateStationDisconnected {
			t.Errorf("expected state to stay %v, got %v", esp01.StateStationDisconnected, s.State())
		}
	})
}
