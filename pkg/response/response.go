package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Success sends a 200 envelope with data.
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Error sends an envelope with only a message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, envelope{Status: status, Message: message})
}

// ValidationError sends a 400 with a field-level error map.
func ValidationError(w http.ResponseWriter, message string, errs map[string]string) {
	JSON(w, http.StatusBadRequest, envelope{
		Status:  http.StatusBadRequest,
		Message: message,
		Errors:  errs,
	})
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed sends a 405.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
