package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/auth"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/config"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/database"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/services"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

const defaultMaxUploadBytes = 70 << 20

type Server struct {
	*http.Server
	startupTime time.Time
	sessions    *auth.SessionManager
	intake      *services.IntakeService
}

func NewServer(c map[string]string, database database.Database, store storage.FileStore, notifier services.Notifier) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	startupTime := time.Now()

	verifier, err := auth.NewVerifier(
		config.GetString(c, "ADMIN_USERNAME", ""),
		config.GetString(c, "ADMIN_PASSWORD", ""),
		config.GetString(c, "ADMIN_PASSWORD_HASH", ""),
	)
	if err != nil {
		return Server{}, err
	}

	sessions := newSessionManager(c, database)
	intake := services.NewIntakeService(store, database, notifier)

	router := newRouter(database,
		withConfig(c),
		withStartupTime(startupTime),
		withFileStore(store),
		withNotifier(notifier),
		withVerifier(verifier),
		withSessions(sessions),
		withIntake(intake),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 180),
		WriteTimeout: config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180),
		IdleTimeout:  config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180),
	}

	return Server{server, startupTime, sessions, intake}, nil
}

func newSessionManager(c map[string]string, database database.Database) *auth.SessionManager {
	ttl := time.Duration(config.GetInt(c, "SESSION_TTL_HOURS", 24)) * time.Hour
	return auth.NewSessionManager(database.SessionRepo(), config.GetString(c, "SESSION_SECRET", ""), ttl)
}

type router struct {
	config      map[string]string
	startupTime time.Time
	fileStore   storage.FileStore
	notifier    services.Notifier
	verifier    auth.CredentialVerifier
	sessions    *auth.SessionManager
	intake      *services.IntakeService
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withFileStore(store storage.FileStore) func(*router) {
	return func(r *router) {
		r.fileStore = store
	}
}

func withNotifier(notifier services.Notifier) func(*router) {
	return func(r *router) {
		r.notifier = notifier
	}
}

func withVerifier(verifier auth.CredentialVerifier) func(*router) {
	return func(r *router) {
		r.verifier = verifier
	}
}

func withSessions(sessions *auth.SessionManager) func(*router) {
	return func(r *router) {
		r.sessions = sessions
	}
}

func withIntake(intake *services.IntakeService) func(*router) {
	return func(r *router) {
		r.intake = intake
	}
}

func newRouter(database database.Database, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	if router.startupTime.IsZero() {
		router.startupTime = time.Now()
	}
	if router.sessions == nil {
		router.sessions = newSessionManager(router.config, database)
	}
	if router.intake == nil {
		router.intake = services.NewIntakeService(router.fileStore, database, router.notifier)
	}
	if router.verifier == nil {
		router.verifier = auth.NewStaticVerifier(auth.DefaultUsername, auth.DefaultPassword)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS")
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	if len(acceptedOrigins) > 0 {
		chiRouter.Use(cors.Handler(cors.Options{
			AllowedOrigins:   acceptedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	handlers := initializeHandlers(database, router)
	authMiddleware := newAuthMiddleware(router.sessions)

	setupRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

// Sessions exposes the session manager so the caller can run its janitor.
func (s Server) Sessions() *auth.SessionManager {
	return s.sessions
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}

	if err := s.intake.Wait(gracefullCtx); err != nil {
		log.Warn().Err(err).Msg("Pending notifications were not finished")
	}
}
