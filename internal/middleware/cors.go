package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS builds the CORS middleware for the message surface. Origins is a
// comma-separated list; extension pages send chrome-extension:// and
// moz-extension:// origins, so exact-match entries are expected rather
// than wildcards. An empty list allows only same-origin callers.
func CORS(origins string) func(http.Handler) http.Handler {
	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			allowed = append(allowed, trimmed)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
	return c.Handler
}
