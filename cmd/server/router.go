package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pverel/imageforge-api/internal/api"
	apiMiddleware "github.com/pverel/imageforge-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	// Create API handlers using the application's services
	taskHandler := api.NewTaskHandler(app.taskService, app.config.Generation)
	configHandler := api.NewConfigHandler(app.config.Generation, app.taskService)
	imageHandler := api.NewImageHandler(app.imageStore, app.artifacts)
	wsHandler := api.NewWSHandler(app.hub, app.taskService)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Task endpoints
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Get("/tasks/{id}", taskHandler.GetTask)

		// Config endpoints
		r.Get("/configs", configHandler.ListConfigs)
		r.Post("/config/concurrent", configHandler.SetConcurrency)

		// Image registry endpoints
		r.Get("/images", imageHandler.ListImages)
		r.Get("/images/{id}/prompt", imageHandler.GetImagePrompt)
		r.Delete("/images/{id}", imageHandler.DeleteImage)
	})

	// Live task updates
	r.Get("/ws/tasks", wsHandler.Subscribe)

	// Generated artifacts
	fileServer := http.StripPrefix("/output/", http.FileServer(http.Dir(app.config.Storage.OutputDir)))
	r.Get("/output/*", fileServer.ServeHTTP)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
