package api

import "github.com/Mani-Selvam/Portfolio-Builder/backend/errs"

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	submissionHandler submissionHandler
	adminHandler      adminHandler
	fileHandler       fileHandler
	healthHandler     healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Message string            `json:"message" example:"validation error"`
	Status  string            `json:"status" example:"error"`
	Field   string            `json:"field,omitempty" example:"resume"`
	Details string            `json:"details,omitempty" example:"Additional error details"`
	Errors  []errs.FieldError `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateSubmissionResponse struct {
	Message      string `json:"message" example:"Submission created successfully"`
	SubmissionID uint   `json:"submissionId" example:"1"`
}

type StatusUpdateRequest struct {
	Status    string `json:"status" example:"in-progress"`
	Completed *bool  `json:"completed,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminStatusResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Uptime string `json:"uptime" example:"1h2m3s"`
}
