package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"studyhive-backend-go/internal/services"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    any                   `json:"data,omitempty"`
	Errors  []services.FieldError `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteData(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: true, Message: message})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// WriteServiceError translates service-layer failures. Anything that is
// not a ServiceError becomes an opaque 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		WriteJSON(w, svcErr.Status, Envelope{Success: false, Message: svcErr.Message, Errors: svcErr.Fields})
		return
	}
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
