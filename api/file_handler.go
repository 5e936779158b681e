package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type fileHandler struct {
	responder Responder
	logger    zerolog.Logger
	store     storage.FileStore
}

func newFileHandler(store storage.FileStore) fileHandler {
	logger := log.With().Str("handlerName", "fileHandler").Logger()

	return fileHandler{
		responder: NewResponder(logger),
		logger:    logger,
		store:     store,
	}
}

// serveUpload streams a stored file for display
// @Summary Get uploaded file
// @Tags Files
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse "File not found"
// @Router /api/uploads/{filename} [get]
func (h fileHandler) serveUpload() http.HandlerFunc {
	return h.serve("inline")
}

// downloadFile streams a stored file as an attachment
// @Summary Download file
// @Tags Admin
// @Param filename path string true "Stored file name"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse "File not found"
// @Router /api/admin/download/{filename} [get]
func (h fileHandler) downloadFile() http.HandlerFunc {
	return h.serve("attachment")
}

func (h fileHandler) serve(disposition string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")

		file, err := h.store.Open(r.Context(), name)
		if errors.Is(err, storage.ErrFileNotFound) {
			h.responder.WriteError(w, errs.NewNotFoundError("file not found"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, errs.NewStorageError("open "+name, err))
			return
		}
		defer file.Body.Close()

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.Name))
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// local files support range requests
		if seeker, ok := file.Body.(io.ReadSeeker); ok {
			http.ServeContent(w, r, file.Name, file.ModTime, seeker)
			return
		}

		if file.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
		}
		if _, err := io.Copy(w, file.Body); err != nil {
			h.logger.Warn().Err(err).Str("name", name).Msg("failed to stream file")
		}
	}
}
