package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"i4.energy/across/esp01ctl/esp01"
)

// Server handles incoming HTTP requests for interacting with the
// configured module
type Server struct {
	Logger  *slog.Logger
	Session *esp01.Session
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /mode", s.handleGetMode)
	mux.HandleFunc("PUT /mode", s.handleSetMode)
	mux.HandleFunc("GET /mac", s.handleGetMAC)
	mux.HandleFunc("PUT /mac", s.handleSetMAC)
	mux.HandleFunc("POST /ap", s.handleConnectAP)
	mux.HandleFunc("DELETE /ap", s.handleDisconnectAP)
	mux.HandleFunc("PUT /autoconnect", s.handleAutoConnect)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// sendModuleError maps a driver error to an HTTP status
func (s *Server) sendModuleError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, esp01.ErrInvalidState), errors.Is(err, esp01.ErrConsumed):
		status = http.StatusConflict
	case errors.Is(err, esp01.ErrCommandError), errors.Is(err, esp01.ErrInvalidMode):
		status = http.StatusBadRequest
	case errors.Is(err, esp01.ErrCommandFailed):
		status = http.StatusBadGateway
	}
	s.Logger.Error("Module operation failed", "op", op, "error", err, "status", status)
	s.sendError(w, err.Error(), status)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

type stateResponse struct {
	State string `json:"state"`
}

func (s *Server) sendState(w http.ResponseWriter) {
	s.sendJSON(w, stateResponse{State: s.Session.State().String()}, http.StatusOK)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.sendState(w)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	info, err := s.Session.FirmwareInfo()
	if err != nil {
		s.sendModuleError(w, "version", err)
		return
	}

	type VersionResponse struct {
		ATVersion   string   `json:"at_version"`
		SDKVersion  string   `json:"sdk_version"`
		CompileTime string   `json:"compile_time,omitempty"`
		BinVersion  string   `json:"bin_version,omitempty"`
		Extra       []string `json:"extra,omitempty"`
	}
	s.sendJSON(w, VersionResponse{
		ATVersion:   info.ATVersion,
		SDKVersion:  info.SDKVersion,
		CompileTime: info.CompileTime,
		BinVersion:  info.BinVersion,
		Extra:       info.Extra,
	}, http.StatusOK)
}

func queryMode(r *http.Request) esp01.QueryMode {
	return queryFlag(r.URL.Query().Get("flash") == "true")
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	mode, err := s.Session.Mode(queryMode(r))
	if err != nil {
		s.sendModuleError(w, "get mode", err)
		return
	}

	type ModeResponse struct {
		Mode string `json:"mode"`
	}
	s.sendJSON(w, ModeResponse{Mode: mode.String()}, http.StatusOK)
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	type ModeRequest struct {
		Mode string `json:"mode"`
		Save bool   `json:"save"`
	}

	var req ModeRequest
	if !s.decode(w, r, &req) {
		return
	}
	mode, err := esp01.ParseMode(req.Mode)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Session.SetMode(mode, persistFlag(req.Save)); err != nil {
		s.sendModuleError(w, "set mode", err)
		return
	}
	s.Logger.Info("Wi-Fi mode set", "mode", mode, "save", req.Save)
	s.sendState(w)
}

func (s *Server) handleGetMAC(w http.ResponseWriter, r *http.Request) {
	mac, err := s.Session.StationMAC(queryMode(r))
	if err != nil {
		s.sendModuleError(w, "get mac", err)
		return
	}

	type MACResponse struct {
		MAC string `json:"mac"`
	}
	s.sendJSON(w, MACResponse{MAC: mac}, http.StatusOK)
}

func (s *Server) handleSetMAC(w http.ResponseWriter, r *http.Request) {
	type MACRequest struct {
		MAC  string `json:"mac"`
		Save bool   `json:"save"`
	}

	var req MACRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.MAC == "" {
		s.sendError(w, "'mac' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Session.SetStationMAC(req.MAC, persistFlag(req.Save)); err != nil {
		s.sendModuleError(w, "set mac", err)
		return
	}
	s.Logger.Info("Station MAC set", "mac", req.MAC, "save", req.Save)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConnectAP(w http.ResponseWriter, r *http.Request) {
	type APRequest struct {
		SSID     string `json:"ssid"`
		Password string `json:"password"`
		Save     bool   `json:"save"`
	}

	var req APRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SSID == "" {
		s.sendError(w, "'ssid' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Session.ConnectAP(req.SSID, req.Password, persistFlag(req.Save)); err != nil {
		s.sendModuleError(w, "connect ap", err)
		return
	}
	s.Logger.Info("Joined access point", "ssid", req.SSID)
	s.sendState(w)
}

func (s *Server) handleDisconnectAP(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.DisconnectAP(); err != nil {
		s.sendModuleError(w, "disconnect ap", err)
		return
	}
	s.Logger.Info("Left access point")
	s.sendState(w)
}

func (s *Server) handleAutoConnect(w http.ResponseWriter, r *http.Request) {
	type AutoConnectRequest struct {
		Enable bool `json:"enable"`
	}

	var req AutoConnectRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.Session.SetAutoConnect(req.Enable); err != nil {
		s.sendModuleError(w, "autoconnect", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
