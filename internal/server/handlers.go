package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dshills/ecoscore/internal/ledger"
	"github.com/dshills/ecoscore/internal/llm"
	"github.com/dshills/ecoscore/internal/score"
	"github.com/dshills/ecoscore/internal/session"
	"github.com/dshills/ecoscore/internal/tips"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Answers score.Profile `json:"answers"`
	Tips    bool          `json:"tips,omitempty"`
}

// EvaluateResponse carries the result and, when requested, tips. A tips
// failure is reported in TipsError and never replaces the result.
type EvaluateResponse struct {
	Result    score.Result `json:"result"`
	Tips      []string     `json:"tips,omitempty"`
	TipsError string       `json:"tips_error,omitempty"`
}

// AcknowledgeRequest names either a policy challenge or a raw point award.
type AcknowledgeRequest struct {
	Challenge string `json:"challenge,omitempty"`
	Points    *int   `json:"points,omitempty"`
}

// TotalResponse reports a session's challenge total.
type TotalResponse struct {
	Total int `json:"total"`
}

// HistoryRequest is the body of POST /v1/sessions/{id}/history.
type HistoryRequest struct {
	Answers score.Profile `json:"answers"`
}

// HistoryResponse returns the evaluated result and the saved entry.
type HistoryResponse struct {
	Result score.Result  `json:"result"`
	Entry  session.Entry `json:"entry"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Value     string `json:"value,omitempty"`
	Challenge string `json:"challenge,omitempty"`
	Points    *int   `json:"points,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// writeStoreError maps session store failures to responses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	var award *ledger.InvalidChallengeAwardError
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &award):
		points := award.Points
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Points: &points})
	default:
		s.log.Error("session store failure", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// evaluate scores answers, writing the 422 reply itself on failure.
func (s *Server) evaluate(w http.ResponseWriter, answers score.Profile) (score.Result, bool) {
	result, err := score.Evaluate(answers, s.policy)
	if err != nil {
		var uv *score.UnknownCategoryValueError
		if errors.As(err, &uv) {
			s.metrics.ObserveEvaluationError("unknown_category_value")
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Field: uv.Field, Value: uv.Value})
			return score.Result{}, false
		}
		s.metrics.ObserveEvaluationError("internal")
		s.log.Error("evaluate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return score.Result{}, false
	}
	s.metrics.ObserveEvaluation(string(result.Tier))
	return result, true
}

// tipsErrorMessage is the client-facing form of a tips failure. Provider
// response bodies stay in the server log.
func tipsErrorMessage(err error) string {
	var se *llm.StatusError
	switch {
	case errors.Is(err, tips.ErrUnavailable):
		return "tips unavailable: no provider configured"
	case errors.Is(err, tips.ErrEmpty):
		return "tips unavailable: provider returned no tips"
	case errors.As(err, &se):
		return fmt.Sprintf("tips unavailable: provider returned status %d", se.StatusCode)
	default:
		return "tips unavailable"
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.policy)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !decode(w, r, &req) {
		return
	}
	result, ok := s.evaluate(w, req.Answers)
	if !ok {
		return
	}

	resp := EvaluateResponse{Result: result}
	if req.Tips {
		lines, cached, err := s.tips.Fetch(r.Context(), s.policy, req.Answers)
		switch {
		case err != nil:
			s.metrics.ObserveTips("error")
			s.log.Warn("tips unavailable", "error", err)
			resp.TipsError = tipsErrorMessage(err)
		case cached:
			s.metrics.ObserveTips("cached")
			resp.Tips = lines
		default:
			s.metrics.ObserveTips("ok")
			resp.Tips = lines
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Create(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.metrics.SessionCreated()
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var req AcknowledgeRequest
	if !decode(w, r, &req) {
		return
	}

	var points int
	switch {
	case req.Challenge != "" && req.Points != nil:
		writeError(w, http.StatusBadRequest, "give either challenge or points, not both")
		return
	case req.Challenge != "":
		ch, ok := s.policy.Challenge(req.Challenge)
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown challenge", Challenge: req.Challenge})
			return
		}
		points = ch.Points
	case req.Points != nil:
		points = *req.Points
	default:
		writeError(w, http.StatusBadRequest, "challenge or points is required")
		return
	}

	total, err := s.store.Acknowledge(r.Context(), mux.Vars(r)["id"], points)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.metrics.ObserveChallengePoints(points)
	writeJSON(w, http.StatusOK, TotalResponse{Total: total})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TotalResponse{Total: 0})
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if !decode(w, r, &req) {
		return
	}
	result, ok := s.evaluate(w, req.Answers)
	if !ok {
		return
	}
	entry := session.EntryFor(result, s.now())
	if err := s.store.Save(r.Context(), mux.Vars(r)["id"], entry); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, HistoryResponse{Result: result, Entry: entry})
}
