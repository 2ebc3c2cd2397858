package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vango-dev/gamewire/pkg/gametype"
)

// RouterOption configures NewRouter.
type RouterOption func(chi.Router)

// MetricsAt serves h at GET path.
func MetricsAt(path string, h http.Handler) RouterOption {
	return func(r chi.Router) {
		r.Method(http.MethodGet, path, h)
	}
}

// NewRouter mounts the gamewire endpoints:
//
//	GET /ws       WebSocket endpoint served by srv
//	GET /types    JSON description of types
//	GET /healthz  liveness with the open connection count
//
// plus whatever the options add, such as a metrics endpoint.
func NewRouter(srv *Server, types *gametype.Set, opts ...RouterOption) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", srv.ServeHTTP)

	desc, err := json.Marshal(types.Describe())
	if err != nil {
		panic(err)
	}
	r.Get("/types", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(desc)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"connections": srv.ConnCount(),
		})
	})

	for _, opt := range opts {
		opt(r)
	}
	return r
}
