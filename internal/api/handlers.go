package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/packetline/internal/audit"
	"github.com/mattjoyce/packetline/internal/dispatch"
)

// HealthzResponse is the GET /healthz payload.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Handlers      int    `json:"handlers"`
}

// HandlerStatus describes one dispatch handler.
type HandlerStatus struct {
	Name      string `json:"name"`
	Workers   int    `json:"workers"`
	Capacity  int    `json:"capacity"`
	Cancelled bool   `json:"cancelled"`
}

// SetWorkersRequest is the PUT /v1/handlers/{name}/workers body.
type SetWorkersRequest struct {
	Count int `json:"count"`
}

func handlerStatus(h *dispatch.Handler) HandlerStatus {
	return HandlerStatus{
		Name:      h.Name(),
		Workers:   h.Workers(),
		Capacity:  h.Capacity(),
		Cancelled: h.Cancelled(),
	}
}

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Handlers:      len(s.registry.All()),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleListHandlers handles GET /v1/handlers.
func (s *Server) handleListHandlers(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	out := make([]HandlerStatus, 0, len(all))
	for _, h := range all {
		out = append(out, handlerStatus(h))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleGetHandler handles GET /v1/handlers/{name}.
func (s *Server) handleGetHandler(w http.ResponseWriter, r *http.Request) {
	h, ok := s.registry.Handler(chi.URLParam(r, "name"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "handler not found")
		return
	}
	s.writeJSON(w, http.StatusOK, handlerStatus(h))
}

// handleSetWorkers handles PUT /v1/handlers/{name}/workers. It drives
// the worker pool toward the requested count.
func (s *Server) handleSetWorkers(w http.ResponseWriter, r *http.Request) {
	h, ok := s.registry.Handler(chi.URLParam(r, "name"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "handler not found")
		return
	}

	var req SetWorkersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.SetWorkers(req.Count); err != nil {
		switch {
		case errors.Is(err, dispatch.ErrWorkerCount):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, dispatch.ErrAlreadyCancelled):
			s.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, dispatch.ErrConvergeTimeout):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, handlerStatus(h))
}

// handleCancelHandler handles DELETE /v1/handlers/{name}.
func (s *Server) handleCancelHandler(w http.ResponseWriter, r *http.Request) {
	h, ok := s.registry.Handler(chi.URLParam(r, "name"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "handler not found")
		return
	}
	h.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// handleAuditRecent handles GET /v1/audit/recent?limit=N.
func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.writeError(w, http.StatusNotFound, "audit log is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read audit trail", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read audit trail")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
