package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/me/goplan/internal/scheduler"
	"github.com/me/goplan/pkg/model"
)

func (s *Server) handleRunSchedule(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	// POST /scheduler/run drives the configured module and only the CP engine
	// understands neighborhood windows.
	if s.module != model.ModuleCPLNS {
		respondError(w, reqID, http.StatusServiceUnavailable,
			&model.APIError{Code: model.ErrUnavailable, Message: "requested scheduler module is not available"})
		return
	}

	payload, ok := decodeRunRequest(w, r, reqID)
	if !ok {
		return
	}
	if win := payload.NeighborhoodWindow; win != nil && !win.Start.Before(win.End) {
		respondError(w, reqID, http.StatusUnprocessableEntity,
			model.NewValidationError("neighborhood window start must precede end"))
		return
	}

	started := time.Now()
	result, metrics, err := s.planner.RunCP(r.Context(), payload.Label, payload.NeighborhoodWindow)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	respondAccepted(w, reqID, runResponse(model.ModuleCPLNS, result, metrics, started))
}

func (s *Server) handleRunSWOSchedule(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	payload, ok := decodeRunRequest(w, r, reqID)
	if !ok {
		return
	}

	started := time.Now()
	result, metrics, err := s.planner.RunSWO(r.Context(), payload.Label)
	if errors.Is(err, scheduler.ErrSWOUnavailable) {
		respondError(w, reqID, http.StatusServiceUnavailable,
			&model.APIError{Code: model.ErrUnavailable, Message: err.Error()})
		return
	}
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}

	respondAccepted(w, reqID, runResponse(model.ModuleSWO, result, metrics, started))
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	module := model.Module(r.URL.Query().Get("module"))
	if module == "" {
		module = s.module
	}
	if module != model.ModuleCPLNS && module != model.ModuleSWO {
		respondError(w, reqID, http.StatusUnprocessableEntity,
			model.NewValidationError("module must be CP_LNS or SWO"))
		return
	}

	snapshot, err := s.store.GetLatestSnapshot(r.Context(), module)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	if snapshot == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("snapshot", string(module)))
		return
	}
	respondOK(w, reqID, snapshot)
}

// decodeRunRequest tolerates an empty body, matching a bare POST.
func decodeRunRequest(w http.ResponseWriter, r *http.Request, reqID string) (model.ScheduleRunRequest, bool) {
	var payload model.ScheduleRunRequest
	if r.Body == nil || r.ContentLength == 0 {
		return payload, true
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("invalid JSON body"))
		return payload, false
	}
	return payload, true
}

func runResponse(module model.Module, result model.ScheduleResult, metrics model.SchedulingMetrics, started time.Time) model.ScheduleRunResponse {
	return model.ScheduleRunResponse{
		Scheduler:        module,
		ObjectiveValue:   result.ObjectiveValue,
		Assignments:      result.Assignments,
		UnscheduledTasks: result.UnscheduledTasks,
		Metrics:          metrics,
		RuntimeMS:        float64(time.Since(started).Microseconds()) / 1000,
	}
}
