// Package http exposes the session and feedback API over REST.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ai-interview-orchestrator/internal/app"
	"ai-interview-orchestrator/internal/models"
	"ai-interview-orchestrator/internal/service/call"
	"ai-interview-orchestrator/internal/service/feedback"
	"ai-interview-orchestrator/internal/service/session"
	"ai-interview-orchestrator/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler carries the dependencies of the API routes.
type Handler struct {
	app     *app.Application
	manager *session.Manager
	store   store.Store
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application, manager *session.Manager, st store.Store) http.Handler {
	h := &Handler{app: application, manager: manager, store: st}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", h.createSession)
		r.Get("/sessions/{sessionID}", h.getSession)
		r.Post("/sessions/{sessionID}/stop", h.stopSession)
		r.Get("/sessions/{sessionID}/result", h.getResult)
		r.Get("/feedback/{feedbackID}", h.getFeedback)
		r.Get("/interviews/{interviewID}/feedback", h.findFeedback)
	})

	return r
}

type createSessionRequest struct {
	Mode        string `json:"mode"`
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	FeedbackID  string `json:"feedbackId,omitempty"`
	WorkflowID  string `json:"workflowId,omitempty"`
}

type sessionResponse struct {
	SessionID  string                  `json:"sessionId"`
	State      string                  `json:"state"`
	Transcript []models.TranscriptLine `json:"transcript,omitempty"`
}

type resultResponse struct {
	SessionID  string `json:"sessionId"`
	FeedbackID string `json:"feedbackId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode := models.SessionMode(req.Mode)
	if mode == "" {
		mode = models.ModeInterview
	}
	if mode != models.ModeInterview && mode != models.ModeGenerate {
		writeError(w, http.StatusBadRequest, "unknown session mode")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if mode == models.ModeInterview && req.InterviewID == "" {
		writeError(w, http.StatusBadRequest, "interviewId is required for interview sessions")
		return
	}

	o, err := h.manager.Create(r.Context(), session.CreateRequest{
		Mode:        mode,
		InterviewID: req.InterviewID,
		UserID:      req.UserID,
		FeedbackID:  req.FeedbackID,
		WorkflowID:  req.WorkflowID,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "interview not found")
			return
		}
		h.app.Logger.Error().Err(err).Msg("session creation failed")
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: o.ID(),
		State:     o.State().String(),
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	o, err := h.manager.Get(id)
	if err != nil {
		// Sessions leave the active set on completion; report the terminal
		// state when a result is retained.
		if res, rerr := h.manager.Result(id); rerr == nil {
			writeJSON(w, http.StatusOK, sessionResponse{SessionID: res.SessionID, State: call.StateEnded.String()})
			return
		}
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:  o.ID(),
		State:      o.State().String(),
		Transcript: o.Transcript(),
	})
}

func (h *Handler) stopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.manager.Stop(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	res, err := h.manager.Result(id)
	if err != nil {
		if _, gerr := h.manager.Get(id); gerr == nil {
			writeError(w, http.StatusConflict, "session still in progress")
			return
		}
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	out := resultResponse{
		SessionID:  res.SessionID,
		FeedbackID: res.FeedbackID,
		Reason:     string(res.Reason),
	}
	if res.Err != nil {
		if kind, ok := feedback.KindOf(res.Err); ok {
			out.Error = kind.String()
		} else {
			out.Error = "internal"
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "feedbackID")
	rec, err := h.store.GetFeedback(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "feedback not found")
			return
		}
		h.app.Logger.Error().Err(err).Msg("feedback lookup failed")
		writeError(w, http.StatusInternalServerError, "feedback lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) findFeedback(w http.ResponseWriter, r *http.Request) {
	interviewID := chi.URLParam(r, "interviewID")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	rec, err := h.store.FindFeedback(r.Context(), interviewID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "feedback not found")
			return
		}
		h.app.Logger.Error().Err(err).Msg("feedback lookup failed")
		writeError(w, http.StatusInternalServerError, "feedback lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
