package http

import (
	"net/http"

	"photosynthesis-lab/internal/app"
	"photosynthesis-lab/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the REST and WebSocket surfaces of the lab.
func NewRouter(service *app.LabService, log logrus.FieldLogger) http.Handler {
	rest := NewRESTHandler(service)
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Get("/rate", rest.Rate)
	r.Get("/content/{id}", rest.Content)

	r.Route("/workspaces", func(r chi.Router) {
		r.Post("/", rest.OpenWorkspace)
		r.Get("/{id}", rest.GetWorkspace)
		r.Post("/{id}/actions", rest.ApplyAction)
		r.Delete("/{id}", rest.CloseWorkspace)
	})
	return r
}
