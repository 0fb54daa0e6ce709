package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Response is the uniform envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// RespondWithSuccess sends a success envelope with optional data and message
func RespondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	writeJSON(w, statusCode, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// RespondWithError sends a failure envelope with a single message
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Response{
		Success: false,
		Message: message,
	})
}

// RespondWithValidationErrors sends the itemized 400 envelope
func RespondWithValidationErrors(w http.ResponseWriter, errors []string) {
	writeJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: "validation failed",
		Errors:  errors,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// ErrorHandlingMiddleware catches panics and converts them to 500
// envelopes, so a response is always emitted. The raw error message is
// only exposed outside production.
func ErrorHandlingMiddleware(logger *zap.Logger, exposeDetails bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					message := "internal server error"
					if exposeDetails {
						message = fmt.Sprintf("internal server error: %v", err)
					}
					RespondWithError(w, http.StatusInternalServerError, message)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
