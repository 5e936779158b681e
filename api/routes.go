package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts every endpoint under /api
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/api", func(r chi.Router) {
		r.Use(HTTPLoggingMiddleware)

		// Public endpoints
		r.Get("/health", handlers.healthHandler.getHealth())
		r.Post("/submissions", handlers.submissionHandler.createSubmission())
		r.Get("/uploads/{filename}", handlers.fileHandler.serveUpload())

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.identify)

			r.Post("/login", handlers.adminHandler.login())
			r.Post("/logout", handlers.adminHandler.logout())
			r.Get("/status", handlers.adminHandler.status())

			// Session-gated endpoints
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.requireAdmin)

				r.Get("/submissions", handlers.submissionHandler.getAllSubmissions())
				r.Get("/submissions/{submissionID}", handlers.submissionHandler.getSubmission())
				r.Patch("/submissions/{submissionID}/status", handlers.submissionHandler.updateSubmissionStatus())
				r.Get("/stats", handlers.submissionHandler.getStats())
				r.Get("/download/{filename}", handlers.fileHandler.downloadFile())
			})
		})
	})
}
