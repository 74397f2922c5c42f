package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// errorResponse is the standardized error body, following the teacher's
// HTTPErrorResponse/HTTPErrorDetails shape.
type errorResponse struct {
	Error     errorDetails `json:"error"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp string       `json:"timestamp"`
}

type errorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Error:     errorDetails{Code: code, Message: message},
		RequestID: chimiddleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
