package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/antoniostano/claria/internal/tasks"
)

type deleteTaskResponse struct {
	Success bool          `json:"success"`
	Tasks   tasks.Grouped `json:"tasks"`
}

// handleListTasks answers the owner's tasks grouped by type, or a flat list
// when type is given.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		respondError(w, http.StatusNotImplemented, "task_store_disabled", "Task store is disabled.")
		return
	}
	owner := ownerKey(r, r.URL.Query().Get("user_key"))

	activeOnly := false
	if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "active must be a boolean")
			return
		}
		activeOnly = v
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		taskType, ok := tasks.ParseType(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid_request", "type must be calendar, reminder or note")
			return
		}
		list, err := s.tasks.ByType(r.Context(), owner, taskType)
		if err != nil {
			s.storeFailure(w, err, "list tasks")
			return
		}
		if activeOnly {
			list = tasks.FilterActive(list)
		}
		respondJSON(w, http.StatusOK, map[string]any{"tasks": list, "count": len(list)})
		return
	}

	var (
		list []tasks.Task
		err  error
	)
	if activeOnly {
		list, err = s.tasks.Active(r.Context(), owner)
	} else {
		list, err = s.tasks.List(r.Context(), owner)
	}
	if err != nil {
		s.storeFailure(w, err, "list tasks")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": tasks.GroupTasks(list), "count": len(list)})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		respondError(w, http.StatusNotImplemented, "task_store_disabled", "Task store is disabled.")
		return
	}
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "invalid_task_id", "missing task id")
		return
	}
	owner := strings.TrimSpace(r.Header.Get(userKeyHeader))
	if owner == "" {
		owner = strings.TrimSpace(r.URL.Query().Get("user_key"))
	}
	if owner == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user key is required")
		return
	}

	if err := s.tasks.Delete(r.Context(), owner, taskID); err != nil {
		s.storeFailure(w, err, "delete task")
		return
	}
	grouped, err := s.tasks.Grouped(r.Context(), owner)
	if err != nil {
		s.storeFailure(w, err, "list tasks")
		return
	}
	respondJSON(w, http.StatusOK, deleteTaskResponse{Success: true, Tasks: grouped})
}

func (s *Server) storeFailure(w http.ResponseWriter, err error, op string) {
	log.WithError(err).WithField("op", op).Error("task store request failed")
	respondError(w, http.StatusInternalServerError, "task_store_failed", "Task store unavailable.")
}
