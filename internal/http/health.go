package httpapi

import (
	"net/http"
	"time"
)

func (s *Server) Healthcheck(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.StartedAt).Round(time.Second).String()
	if err := s.DB.PingContext(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, Envelope{
			Success: false,
			Message: "Service degraded",
			Data:    map[string]string{"status": "DOWN", "uptime": uptime},
		})
		return
	}
	WriteData(w, http.StatusOK, "Service healthy", map[string]string{
		"status": "UP",
		"uptime": uptime,
	})
}
