// Package auth provides the HTTP authentication middlewares: storefront
// proxy signature verification for shopper-facing routes and bearer token
// verification for operator-facing routes.
package auth

import (
	"log/slog"
	"net/http"

	"github.com/opaline/shopassist/pkg/proxysig"
)

// ProxyConfig configures storefront proxy signature verification.
type ProxyConfig struct {
	// Enabled turns signature verification on. When false the middleware
	// passes every request through, for local development without a
	// storefront in front.
	Enabled bool `yaml:"enabled"`
	// Secret is the shared signing secret. Never logged.
	Secret string `yaml:"secret"`
}

// ProxyMiddleware rejects requests whose query string does not carry a valid
// proxy signature. Rejections are 401 with a JSON body naming the failure as
// an authorization one.
func ProxyMiddleware(cfg ProxyConfig, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !proxysig.Verify(r.URL.String(), cfg.Secret) {
				log.Warn("rejected unsigned request", "path", r.URL.Path)
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
}
