package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bhavanagoud111/The-Robot-driver/internal/engine"
	"github.com/bhavanagoud111/The-Robot-driver/internal/plan"
	"github.com/bhavanagoud111/The-Robot-driver/internal/task"
	"github.com/bhavanagoud111/The-Robot-driver/pkg/httpx"
)

type createTaskRequest struct {
	Goal string `json:"goal"`
}

type listTasksResponse struct {
	Tasks []task.Task `json:"tasks"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if s.handleIdempotentRequest(w, r, func(rw http.ResponseWriter) {
		s.createTask(rw, r)
	}) {
		return
	}
	s.createTask(w, r)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Goal) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "goal is required")
		return
	}

	created, err := s.engine.Submit(r.Context(), req.Goal)
	if err != nil {
		var cerr *plan.CompilationError
		switch {
		case errors.As(err, &cerr):
			httpx.WriteError(w, http.StatusUnprocessableEntity, "plan_compilation_failed", cerr.Error())
		case errors.Is(err, engine.ErrQueueFull):
			httpx.WriteError(w, http.StatusServiceUnavailable, "queue_full", "task queue is full, retry later")
		default:
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		}
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "taskID"))
	found, err := s.engine.Task(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "no task with id "+taskID)
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, found)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, listTasksResponse{Tasks: s.engine.Tasks(r.Context())})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
