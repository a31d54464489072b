package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/goplan/pkg/model"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondOK(w, reqID, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var payload model.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid JSON body"))
		return
	}
	if fieldErrs := validateTaskPayload(&payload); len(fieldErrs) > 0 {
		respondError(w, reqID, http.StatusUnprocessableEntity,
			model.NewValidationError("invalid task", fieldErrs...))
		return
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:               uuid.New().String(),
		Title:            payload.Title,
		Description:      payload.Description,
		DurationMinutes:  payload.DurationMinutes,
		EarliestStart:    payload.EarliestStart,
		Due:              payload.Due,
		Priority:         payload.Priority,
		PreferredWindows: payload.PreferredWindows,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateTask(r.Context(), task); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondCreated(w, reqID, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if task == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("task", id))
		return
	}
	respondOK(w, reqID, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if task == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("task", id))
		return
	}

	var payload model.TaskCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid JSON body"))
		return
	}
	if fieldErrs := validateTaskPayload(&payload); len(fieldErrs) > 0 {
		respondError(w, reqID, http.StatusUnprocessableEntity,
			model.NewValidationError("invalid task", fieldErrs...))
		return
	}

	task.Title = payload.Title
	task.Description = payload.Description
	task.DurationMinutes = payload.DurationMinutes
	task.EarliestStart = payload.EarliestStart
	task.Due = payload.Due
	task.Priority = payload.Priority
	task.PreferredWindows = payload.PreferredWindows
	task.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondOK(w, reqID, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondOK(w, reqID, map[string]string{"deleted": id})
}

// validateTaskPayload applies defaults and returns field-level problems.
func validateTaskPayload(p *model.TaskCreate) []model.FieldError {
	var errs []model.FieldError
	if p.Title == "" {
		errs = append(errs, model.FieldError{Field: "title", Message: "required"})
	}
	if p.DurationMinutes <= 0 {
		errs = append(errs, model.FieldError{Field: "duration_minutes", Message: "must be positive"})
	}
	if p.EarliestStart.IsZero() || p.Due.IsZero() {
		errs = append(errs, model.FieldError{Field: "earliest_start", Message: "earliest_start and due are required"})
	} else if !p.EarliestStart.Before(p.Due) {
		errs = append(errs, model.FieldError{Field: "due", Message: "must be after earliest_start"})
	}
	if p.Priority == 0 {
		p.Priority = 1
	}
	if p.Priority < 1 || p.Priority > 10 {
		errs = append(errs, model.FieldError{Field: "priority", Message: "must be in [1, 10]"})
	}
	for _, window := range p.PreferredWindows {
		if !window.Start.Before(window.End) {
			errs = append(errs, model.FieldError{Field: "preferred_windows", Message: "window start must precede end"})
			break
		}
		if window.Weight != nil && (*window.Weight < 1 || *window.Weight > 100) {
			errs = append(errs, model.FieldError{Field: "preferred_windows", Message: "weight must be in [1, 100]"})
			break
		}
	}
	return errs
}
