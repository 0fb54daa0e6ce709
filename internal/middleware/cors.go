package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware restricts browser access to the configured frontend
// origin. In development every origin is allowed.
func CORSMiddleware(allowedOrigin string, isDevelopment bool) func(http.Handler) http.Handler {
	allowedOrigins := []string{allowedOrigin}
	if isDevelopment {
		allowedOrigins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})
}
