package server

import (
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	respondOK(w, reqID, map[string]any{
		"status":    "ok",
		"scheduler": s.module,
		"uptime":    time.Since(s.startTime).String(),
	})
}
