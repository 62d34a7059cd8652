package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Route("/presentations", func(r chi.Router) {
			r.Post("/", c.createPresentation)
			r.Route("/{presentation-id}", func(r chi.Router) {
				r.Get("/", c.getPresentation)
				r.Get("/config", c.getConfig)
				r.Put("/config", c.updateConfig)
				r.Get("/blob", c.getBlob)
				r.Put("/blob", c.uploadBlob)
				r.Get("/index", c.getCurrentIndex)
				r.Post("/commands", c.sendCommand)
			})
		})
		r.Route("/ws/presentations/{presentation-id}", func(r chi.Router) {
			r.Get("/presenter", c.presenter)
			r.Get("/audience", c.audience)
		})
	})

	return r
}
