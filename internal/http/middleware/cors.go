package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// Cors builds the CORS policy from the configured origins. A "*" entry
// allows any origin without credentials; explicit origins allow credentials.
func Cors(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := slices.Contains(allowedOrigins, "*")

	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: !allowAny,
		MaxAge:           300,
	}
	if allowAny {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = allowedOrigins
	}

	return cors.Handler(opts)
}
