package api

import (
	"github.com/Mani-Selvam/Portfolio-Builder/backend/config"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, deps router) *routeHandlers {
	maxUploadBytes := config.GetInt64(deps.config, "MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	cookieSecure := config.GetBool(deps.config, "COOKIE_SECURE", false)

	return &routeHandlers{
		submissionHandler: newSubmissionHandler(database, deps.intake, maxUploadBytes),
		adminHandler:      newAdminHandler(deps.verifier, deps.sessions, cookieSecure),
		fileHandler:       newFileHandler(deps.fileStore),
		healthHandler:     newHealthHandler(database, deps.startupTime),
	}
}
