package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/goplan/pkg/model"
)

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	meetings, err := s.store.ListMeetings(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondOK(w, reqID, meetings)
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var payload model.MeetingCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid JSON body"))
		return
	}

	var fieldErrs []model.FieldError
	if payload.Title == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "title", Message: "required"})
	}
	if payload.StartTime.IsZero() || payload.EndTime.IsZero() {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "start_time", Message: "start_time and end_time are required"})
	} else if !payload.StartTime.Before(payload.EndTime) {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "end_time", Message: "must be after start_time"})
	}
	if len(fieldErrs) > 0 {
		respondError(w, reqID, http.StatusUnprocessableEntity,
			model.NewValidationError("invalid meeting", fieldErrs...))
		return
	}

	now := time.Now().UTC()
	meeting := &model.Meeting{
		ID:        uuid.New().String(),
		Title:     payload.Title,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateMeeting(r.Context(), meeting); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondCreated(w, reqID, meeting)
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	meeting, err := s.store.GetMeeting(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if meeting == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("meeting", id))
		return
	}
	respondOK(w, reqID, meeting)
}

func (s *Server) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteMeeting(r.Context(), id); err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondOK(w, reqID, map[string]string{"deleted": id})
}
