// Package httpapi exposes the menu services over HTTP under /api/v1.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/service"
)

type Config struct {
	Services *service.Services

	// Queue receives the deferred cache invalidations of each write request.
	// nil runs them inline after the response.
	Queue coordinator.Submitter

	// Ping backs /health; nil always reports healthy.
	Ping func(ctx context.Context) error

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	AllowedOrigins []string
	Logger         menucache.Logger
}

func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = menucache.NopLogger{}
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &handler{svc: cfg.Services, validate: validator.New(), log: log}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", health(cfg.Ping, log))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deferTasks(cfg.Queue))

		r.Get("/full_menus_submenus_dishes", h.listFull)

		r.Route("/menus", func(r chi.Router) {
			r.Get("/", h.listMenus)
			r.Post("/", h.createMenu)

			r.Route("/{menu_id}", func(r chi.Router) {
				r.Get("/", h.getMenu)
				r.Patch("/", h.updateMenu)
				r.Delete("/", h.deleteMenu)

				r.Route("/submenus", func(r chi.Router) {
					r.Get("/", h.listSubmenus)
					r.Post("/", h.createSubmenu)

					r.Route("/{submenu_id}", func(r chi.Router) {
						r.Get("/", h.getSubmenu)
						r.Patch("/", h.updateSubmenu)
						r.Delete("/", h.deleteSubmenu)

						r.Route("/dishes", func(r chi.Router) {
							r.Get("/", h.listDishes)
							r.Post("/", h.createDish)

							r.Route("/{dish_id}", func(r chi.Router) {
								r.Get("/", h.getDish)
								r.Patch("/", h.updateDish)
								r.Delete("/", h.deleteDish)
							})
						})
					})
				})
			})
		})
	})
	return r
}

func health(ping func(context.Context) error, log menucache.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.Warn("health check failed", menucache.Fields{"err": err})
				respondJSON(w, log, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		respondJSON(w, log, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
