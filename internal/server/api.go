package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/logging"
	"github.com/muurk/synapse-topology/internal/version"
)

// maxBodyBytes caps request bodies; answers are small.
const maxBodyBytes = 64 << 10

// StateResponse is the wizard state as seen by API and WebSocket clients.
type StateResponse struct {
	Screen   flow.Screen            `json:"screen"`
	Title    string                 `json:"title"`
	Context  flow.Context           `json:"context"`
	HasBack  bool                   `json:"has_back"`
	Final    bool                   `json:"final"`
	Answers  *baseconfig.BaseConfig `json:"answers"`
	Errors   []string               `json:"errors,omitempty"`
	Warnings []string               `json:"warnings,omitempty"`
}

// ScreenInfo describes one wizard screen.
type ScreenInfo struct {
	Screen flow.Screen `json:"screen"`
	Title  string      `json:"title"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Field  string   `json:"field,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/navigate", s.handleNavigate)
	s.mux.HandleFunc("POST /api/check", s.handleCheck)
	s.mux.HandleFunc("PUT /api/answers", s.handleAnswers)
	s.mux.HandleFunc("GET /api/screens", s.handleScreens)
	s.mux.HandleFunc("GET /api/render/homeserver", s.handleRenderHomeserver)
	s.mux.HandleFunc("GET /api/render/reverse-proxy", s.handleRenderReverseProxy)
	s.mux.HandleFunc("GET /api/render/delegation", s.handleRenderDelegation)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"clients": s.ActiveClients(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := s.snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var action flow.Action
	if err := decodeJSON(w, r, &action); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !action.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown action type %q", action.Type))
		return
	}

	resp, err := s.navigate(action)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	resp, err := s.navigate(flow.CheckBaseConfig())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err))
		return
	}

	resp, err := s.updateAnswers(patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScreens(w http.ResponseWriter, r *http.Request) {
	screens := flow.Screens()
	infos := make([]ScreenInfo, 0, len(screens))
	for _, screen := range screens {
		infos = append(infos, ScreenInfo{Screen: screen, Title: screen.Title()})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleRenderHomeserver(w http.ResponseWriter, r *http.Request) {
	answers := s.currentAnswers()

	data, err := baseconfig.RenderHomeserver(answers)
	if err != nil {
		_, critical := baseconfig.SeparateWarningsAndErrors(baseconfig.Validate(answers))
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  baseconfig.GetShortErrorMessage(err),
			Errors: errorStrings(critical),
		})
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRenderReverseProxy(w http.ResponseWriter, r *http.Request) {
	out, err := baseconfig.RenderReverseProxy(s.currentAnswers())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleRenderDelegation(w http.ResponseWriter, r *http.Request) {
	d, err := baseconfig.RenderDelegation(s.currentAnswers())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// navigate applies an action to the session and broadcasts the new state.
// Advancing past a screen whose answers are invalid is refused.
func (s *Server) navigate(action flow.Action) (StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state
	if action.Type == flow.ActionAdvance {
		if err := baseconfig.ValidateScreen(current.Screen, s.answers); err != nil {
			return StateResponse{}, err
		}
	}

	next := current.Apply(action)
	if action.Type == flow.ActionAdvance {
		s.answers = recordOption(s.answers, current.Screen, action.Option)
	}
	s.state = next

	logging.LogTransition(string(current.Screen), string(next.Screen), string(action.Type), action.Option)

	s.persist()
	resp := s.snapshot()
	s.hub.broadcast(stateMessage(resp))
	return resp, nil
}

// recordOption copies a branching choice into the answers.
func recordOption(answers *baseconfig.BaseConfig, screen flow.Screen, option string) *baseconfig.BaseConfig {
	b := baseconfig.NewBuilder(answers)
	switch screen {
	case flow.ScreenDelegationOptions:
		if d := flow.DelegationType(option); d.Valid() {
			b.SetDelegation(d)
		}
	case flow.ScreenTLS:
		if t := flow.TLSType(option); t.Valid() {
			b.SetTLS(t)
		}
	}
	return b.Peek()
}

// updateAnswers merges a JSON object onto the current answers.
func (s *Server) updateAnswers(patch []byte) (StateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.answers.Clone()
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	if err := dec.Decode(merged); err != nil {
		return StateResponse{}, fmt.Errorf("invalid answers: %w", err)
	}
	if err := checkEnums(merged); err != nil {
		return StateResponse{}, err
	}

	s.answers = merged
	s.state.Context = merged.Context()

	logging.Debug("Answers updated", zap.String("summary", merged.Summary()))

	s.persist()
	resp := s.snapshot()
	s.hub.broadcast(stateMessage(resp))
	return resp, nil
}

func checkEnums(bc *baseconfig.BaseConfig) error {
	if bc.Delegation != "" && !bc.Delegation.Valid() {
		return fmt.Errorf("unknown delegation type %q", bc.Delegation)
	}
	if bc.TLS != "" && !bc.TLS.Valid() {
		return fmt.Errorf("unknown tls type %q", bc.TLS)
	}
	if bc.ReverseProxy != "" && !bc.ReverseProxy.Valid() {
		return fmt.Errorf("unknown reverse proxy %q", bc.ReverseProxy)
	}
	if bc.Database != "" && !bc.Database.Valid() {
		return fmt.Errorf("unknown database %q", bc.Database)
	}
	return nil
}

func (s *Server) currentAnswers() *baseconfig.BaseConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// snapshot builds the client view of the session. Caller must hold s.mu.
func (s *Server) snapshot() StateResponse {
	warnings, critical := baseconfig.SeparateWarningsAndErrors(baseconfig.Validate(s.answers))
	return StateResponse{
		Screen:   s.state.Screen,
		Title:    s.state.Screen.Title(),
		Context:  s.state.Context,
		HasBack:  flow.HasBack(s.state.Screen),
		Final:    s.state.Final(),
		Answers:  s.answers.Clone(),
		Errors:   errorStrings(critical),
		Warnings: errorStrings(warnings),
	}
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var cfgErr *baseconfig.ConfigError
	if errors.As(err, &cfgErr) {
		resp.Error = cfgErr.Message
		resp.Field = cfgErr.Field
	}
	writeJSON(w, status, resp)
}
