package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/database"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/services"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// multipart parts above this size are spooled to temporary files
const multipartMemory = 16 << 20

type submissionHandler struct {
	responder      Responder
	logger         zerolog.Logger
	database       database.Database
	intake         *services.IntakeService
	maxUploadBytes int64
}

func newSubmissionHandler(database database.Database, intake *services.IntakeService, maxUploadBytes int64) submissionHandler {
	logger := log.With().Str("handlerName", "submissionHandler").Logger()

	return submissionHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		database:       database,
		intake:         intake,
		maxUploadBytes: maxUploadBytes,
	}
}

// createSubmission accepts the public intake form
// @Summary Create submission
// @Description Multipart form: "data" holds the submission JSON, files go in "resume", "profilePhoto" and "projectScreenshots"
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} CreateSubmissionResponse
// @Failure 400 {object} ErrorResponse "Validation error, missing resume or rejected file"
// @Failure 413 {object} ErrorResponse "Request body too large"
// @Failure 500 {object} ErrorResponse
// @Router /api/submissions [post]
func (h submissionHandler) createSubmission() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxErr.Limit))
				return
			}
			h.responder.WriteError(w, errs.NewMalformedPayloadError("multipart", err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		req, err := intakeRequestFromForm(r.MultipartForm)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		created, err := h.intake.Submit(r.Context(), req)
		if err != nil {
			// server failures are logged by the responder
			if status := errs.StatusCode(err); status < http.StatusInternalServerError {
				h.logger.Info().Int("status", status).Str("reason", err.Error()).Msg("submission rejected")
			}
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, CreateSubmissionResponse{
			Message:      "Submission created successfully",
			SubmissionID: created.ID,
		})
	}
}

func intakeRequestFromForm(form *multipart.Form) (services.IntakeRequest, error) {
	req := services.IntakeRequest{}
	if values := form.Value["data"]; len(values) > 0 {
		req.Data = values[0]
	}

	var err error
	if req.Resume, err = singleUpload(form, "resume"); err != nil {
		return req, err
	}
	if req.ProfilePhoto, err = singleUpload(form, "profilePhoto"); err != nil {
		return req, err
	}

	screenshots := form.File["projectScreenshots"]
	if len(screenshots) > services.MaxProjectScreenshots {
		return req, errs.NewInvalidFieldError("projectScreenshots",
			fmt.Sprintf("at most %d screenshots are accepted", services.MaxProjectScreenshots))
	}
	for _, fh := range screenshots {
		upload, err := readUpload(fh)
		if err != nil {
			return req, err
		}
		req.ProjectScreenshots = append(req.ProjectScreenshots, upload)
	}
	return req, nil
}

func singleUpload(form *multipart.Form, field string) (*storage.Upload, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errs.NewInvalidFieldError(field, "only one file is accepted")
	}
	upload, err := readUpload(files[0])
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func readUpload(fh *multipart.FileHeader) (storage.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Upload{}, errs.NewMalformedPayloadError("multipart", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return storage.Upload{}, errs.NewMalformedPayloadError("multipart", err)
	}
	return storage.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// getAllSubmissions lists submissions newest first
// @Summary List submissions
// @Tags Admin
// @Produce json
// @Param status query string false "pending, in-progress or completed"
// @Param search query string false "matches name, email or title"
// @Success 200 {array} models.SubmissionWithProjects
// @Failure 401 {object} ErrorResponse
// @Router /api/admin/submissions [get]
func (h submissionHandler) getAllSubmissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := database.SubmissionFilter{
			Status: models.Status(strings.TrimSpace(r.URL.Query().Get("status"))),
			Search: r.URL.Query().Get("search"),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			h.responder.WriteError(w, invalidStatusError())
			return
		}

		submissions, err := h.database.GetSubmissions(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "submissions", err))
			return
		}

		h.responder.WriteJSON(w, submissions)
	}
}

// getSubmission returns one submission with its projects
// @Summary Get submission
// @Tags Admin
// @Produce json
// @Param submissionID path int true "Submission ID"
// @Success 200 {object} models.SubmissionWithProjects
// @Failure 400 {object} ErrorResponse "Invalid submissionID"
// @Failure 404 {object} ErrorResponse "Submission not found"
// @Router /api/admin/submissions/{submissionID} [get]
func (h submissionHandler) getSubmission() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := submissionIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		submission, err := h.database.GetSubmissionByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "submission", err))
			return
		}
		if submission == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("submission not found"))
			return
		}

		h.responder.WriteJSON(w, submission)
	}
}

// updateSubmissionStatus sets the review status and optionally the completed flag
// @Summary Update submission status
// @Tags Admin
// @Accept json
// @Produce json
// @Param submissionID path int true "Submission ID"
// @Param body body StatusUpdateRequest true "New status"
// @Success 200 {object} models.Submission
// @Failure 400 {object} ErrorResponse "Invalid status or submissionID"
// @Failure 404 {object} ErrorResponse "Submission not found"
// @Router /api/admin/submissions/{submissionID}/status [patch]
func (h submissionHandler) updateSubmissionStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := submissionIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var body StatusUpdateRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
			h.responder.WriteError(w, errs.NewInvalidJSONError("body", err))
			return
		}

		status := models.Status(strings.TrimSpace(body.Status))
		if !status.Valid() {
			h.responder.WriteError(w, invalidStatusError())
			return
		}

		updated, err := h.database.UpdateSubmissionStatus(r.Context(), id, status, body.Completed)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "submission status", err))
			return
		}
		if updated == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("submission not found"))
			return
		}

		h.logger.Info().Uint("submissionId", id).Str("status", string(status)).Msg("submission status updated")
		h.responder.WriteJSON(w, updated)
	}
}

// getStats returns the dashboard counters
// @Summary Submission counters
// @Tags Admin
// @Produce json
// @Success 200 {object} models.SubmissionStats
// @Router /api/admin/stats [get]
func (h submissionHandler) getStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.database.Stats(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("count", "submissions", err))
			return
		}
		h.responder.WriteJSON(w, stats)
	}
}

func submissionIDParam(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "submissionID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errs.NewInvalidFieldError("submissionID", "must be a positive integer")
	}
	return uint(id), nil
}

func invalidStatusError() error {
	names := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		names[i] = string(s)
	}
	return errs.NewInvalidFieldError("status", "must be one of "+strings.Join(names, ", "))
}
