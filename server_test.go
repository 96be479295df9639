package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"i4.energy/across/esp01ctl/esp01"
)

func newTestServer(t *testing.T, reply ...string) (*Server, *esp01.TestTransport) {
	t.Helper()
	transport := esp01.NewTestTransport()
	transport.EnableEcho()
	transport.SendData(strings.Join(reply, ""))
	return &Server{
		Logger:  slog.New(slog.DiscardHandler),
		Session: esp01.NewSession(esp01.NewDevice(transport, nil)),
	}, transport
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return v
}

func TestServer(t *testing.T) {
	t.Run("State of a fresh module", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := do(s, http.MethodGet, "/state", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := decodeBody(t, rec)["state"]; got != "unknown" {
			t.Errorf("expected state unknown, got %v", got)
		}
	})

	t.Run("Version", func(t *testing.T) {
		s, _ := newTestServer(t,
			"AT version:1.2.0.0(Jul  1 2016 20:04:45)\r\n",
			"SDK version:1.5.4.1(39cb9a32)\r\n",
			"\r\nOK\r\n",
		)
		rec := do(s, http.MethodGet, "/version", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		body := decodeBody(t, rec)
		if body["at_version"] != "1.2.0.0(Jul  1 2016 20:04:45)" {
			t.Errorf("unexpected at_version %v", body["at_version"])
		}
		if body["sdk_version"] != "1.5.4.1(39cb9a32)" {
			t.Errorf("unexpected sdk_version %v", body["sdk_version"])
		}
	})

	t.Run("Set and query mode", func(t *testing.T) {
		s, transport := newTestServer(t, "\r\nOK\r\n", "+CWMODE_DEF:1\r\n\r\nOK\r\n")

		rec := do(s, http.MethodPut, "/mode", `{"mode":"station"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decodeBody(t, rec)["state"]; got != "station-disconnected" {
			t.Errorf("expected state station-disconnected, got %v", got)
		}

		rec = do(s, http.MethodGet, "/mode?flash=true", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decodeBody(t, rec)["mode"]; got != "station" {
			t.Errorf("expected mode station, got %v", got)
		}

		want := "AT+CWMODE_CUR=1\r\nAT+CWMODE_DEF?\r\n"
		if got := transport.Written(); got != want {
			t.Errorf("expected %q on the wire, got %q", want, got)
		}
	})

	t.Run("Invalid mode", func(t *testing.T) {
		s, transport := newTestServer(t)
		rec := do(s, http.MethodPut, "/mode", `{"mode":"mesh"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if got := transport.Written(); got != "" {
			t.Errorf("expected nothing on the wire, got %q", got)
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := do(s, http.MethodPut, "/mode", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("MAC address", func(t *testing.T) {
		s, transport := newTestServer(t, "\r\nOK\r\n", "+CIPSTAMAC_CUR:\"1a:fe:34:00:00:01\"\r\n\r\nOK\r\n")

		rec := do(s, http.MethodPut, "/mac", `{"mac":"1a:fe:34:00:00:01"}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body)
		}
		rec = do(s, http.MethodGet, "/mac", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decodeBody(t, rec)["mac"]; got != "1a:fe:34:00:00:01" {
			t.Errorf("unexpected mac %v", got)
		}
		want := "AT+CIPSTAMAC_CUR=\"1a:fe:34:00:00:01\"\r\nAT+CIPSTAMAC_CUR?\r\n"
		if got := transport.Written(); got != want {
			t.Errorf("expected %q on the wire, got %q", want, got)
		}
	})

	t.Run("Missing MAC", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := do(s, http.MethodPut, "/mac", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Join before station mode", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := do(s, http.MethodPost, "/ap", `{"ssid":"home","password":"s3cr3t"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("Join and leave", func(t *testing.T) {
		s, _ := newTestServer(t,
			"\r\nOK\r\n",
			"WIFI CONNECTED\r\nWIFI GOT IP\r\n\r\nOK\r\n",
			"\r\nOK\r\n",
			"WIFI DISCONNECT\r\n\r\nOK\r\n",
		)

		if rec := do(s, http.MethodPut, "/mode", `{"mode":"1"}`); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		rec := do(s, http.MethodPost, "/ap", `{"ssid":"home","password":"s3cr3t"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decodeBody(t, rec)["state"]; got != "station-connected" {
			t.Errorf("expected state station-connected, got %v", got)
		}
		if rec := do(s, http.MethodPut, "/autoconnect", `{"enable":true}`); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body)
		}
		rec = do(s, http.MethodDelete, "/ap", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		if got := decodeBody(t, rec)["state"]; got != "station-disconnected" {
			t.Errorf("expected state station-disconnected, got %v", got)
		}
	})

	t.Run("Join failure", func(t *testing.T) {
		s, _ := newTestServer(t, "\r\nOK\r\n", "+CWJAP:3\r\n\r\nFAIL\r\n")

		if rec := do(s, http.MethodPut, "/mode", `{"mode":"station"}`); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		rec := do(s, http.MethodPost, "/ap", `{"ssid":"nowhere","password":"x"}`)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), `"x"`) {
			t.Errorf("password leaked into the response: %s", rec.Body)
		}
		if s.Session.State() != esp01.StateStationDisconnected {
			t.Errorf("unexpected state %v", s.Session.State())
		}
	})

	t.Run("Rejected command", func(t *testing.T) {
		s, _ := newTestServer(t, "\r\nERROR\r\n")
		rec := do(s, http.MethodPut, "/mac", `{"mac":"zz"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Unknown route", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := do(s, http.MethodGet, "/scan", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
