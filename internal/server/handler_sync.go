package server

import (
	"encoding/json"
	"net/http"

	"github.com/me/goplan/pkg/model"
)

func (s *Server) handleSyncFeed(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	if s.syncer == nil {
		respondError(w, reqID, http.StatusServiceUnavailable,
			&model.APIError{Code: model.ErrUnavailable, Message: "no calendar feed is configured"})
		return
	}

	payload := model.SyncRunRequest{RunScheduler: true}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid JSON body"))
			return
		}
	}

	outcome, err := s.syncer.Sync(r.Context(), payload.RunScheduler)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	respondOK(w, reqID, model.SyncRunResponse{
		ImportedEvents: outcome.ImportedEvents,
		SchedulerRan:   outcome.SchedulerRan,
	})
}
