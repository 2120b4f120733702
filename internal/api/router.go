package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/tasksync/internal/api/middleware"
)

// NewRouter builds the control API router.
func NewRouter(taskHandler *TaskHandler, syncHandler *SyncHandler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTraceMiddleware(logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.ListTasks)
		r.Post("/", taskHandler.CreateTask)
		r.Put("/{id}", taskHandler.UpdateTask)
		r.Delete("/{id}", taskHandler.DeleteTask)
	})

	r.Get("/status", syncHandler.Status)
	r.Post("/reconcile", syncHandler.Reconcile)

	return r
}
