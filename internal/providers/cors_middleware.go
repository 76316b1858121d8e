package providers

import (
	"net/http"

	"anonchat/internal/structures"
)

// CorsMiddleware sets the fixed-origin CORS headers on every response.
// The allowed origin is a single configured value: the chat is embedded
// on one site, there is no origin list to negotiate.
func CorsMiddleware(conf *structures.Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", conf.Cors.AllowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
