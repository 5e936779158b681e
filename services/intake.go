package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const MaxProjectScreenshots = 10

// SubmissionWriter persists a submission and its projects as one unit.
type SubmissionWriter interface {
	CreateSubmissionWithProjects(ctx context.Context, submission *models.Submission, projects []models.Project) (*models.SubmissionWithProjects, error)
}

// IntakeRequest is a parsed multipart submission. Data is the raw JSON of the
// "data" field.
type IntakeRequest struct {
	Data               string
	ProfilePhoto       *storage.Upload
	Resume             *storage.Upload
	ProjectScreenshots []storage.Upload
}

// IntakeService turns an IntakeRequest into a stored submission.
type IntakeService struct {
	store         storage.FileStore
	writer        SubmissionWriter
	notifier      Notifier
	notifyTimeout time.Duration
	logger        zerolog.Logger

	pending sync.WaitGroup
}

func NewIntakeService(store storage.FileStore, writer SubmissionWriter, notifier Notifier) *IntakeService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &IntakeService{
		store:         store,
		writer:        writer,
		notifier:      notifier,
		notifyTimeout: 15 * time.Second,
		logger:        log.With().Str("component", "intakeService").Logger(),
	}
}

// Submit runs the workflow: decode, require the resume, store files, validate,
// persist in one transaction and notify. Notifications are sent in the background
// and never fail or delay the call.
func (s *IntakeService) Submit(ctx context.Context, req IntakeRequest) (*models.SubmissionWithProjects, error) {
	input, err := DecodeSubmission(req.Data)
	if err != nil {
		return nil, err
	}

	if req.Resume == nil || len(req.Resume.Data) == 0 {
		return nil, errs.NewMissingRequiredFieldError("resume")
	}
	if len(req.ProjectScreenshots) > MaxProjectScreenshots {
		return nil, errs.NewInvalidFieldError("projectScreenshots", "at most 10 screenshots are accepted")
	}

	resume, err := s.save(ctx, *req.Resume, storage.RoleResume, "resume")
	if err != nil {
		return nil, err
	}
	input.ResumeURL = resume.URL

	if req.ProfilePhoto != nil && len(req.ProfilePhoto.Data) > 0 {
		photo, err := s.save(ctx, *req.ProfilePhoto, storage.RoleProfilePhoto, "profilePhoto")
		if err != nil {
			return nil, err
		}
		input.ProfilePhotoURL = &photo.URL
	}

	screenshots := make([]string, 0, len(req.ProjectScreenshots))
	for _, upload := range req.ProjectScreenshots {
		ref, err := s.save(ctx, upload, storage.RoleProjectScreenshot, "projectScreenshots")
		if err != nil {
			return nil, err
		}
		screenshots = append(screenshots, ref.URL)
	}

	validated, err := Validate(input, len(screenshots))
	if err != nil {
		return nil, err
	}

	projects := AttachScreenshots(validated.Projects, screenshots)

	created, err := s.writer.CreateSubmissionWithProjects(ctx, &validated.Submission, projects)
	if err != nil {
		return nil, errs.NewTransactionFailedError("create submission", err)
	}

	s.logger.Info().
		Uint("submissionId", created.ID).
		Int("projects", len(created.Projects)).
		Int("screenshots", len(screenshots)).
		Msg("submission created")

	s.notify(ctx, created)
	return created, nil
}

func (s *IntakeService) save(ctx context.Context, upload storage.Upload, role storage.Role, field string) (storage.FileRef, error) {
	upload.Role = role
	upload.Field = field

	ref, err := s.store.Save(ctx, upload)
	if err != nil {
		var apiErr *errs.ApiErr
		if errors.As(err, &apiErr) {
			return storage.FileRef{}, err
		}
		return storage.FileRef{}, errs.NewStorageError("store "+field, err)
	}
	return ref, nil
}

func (s *IntakeService) notify(ctx context.Context, submission *models.SubmissionWithProjects) {
	// the request is usually finished before the channels answer
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		if err := s.notifier.SubmissionReceived(notifyCtx, submission); err != nil {
			s.logger.Warn().Err(err).Uint("submissionId", submission.ID).Msg("submission notification failed")
		}
	}()
}

// Wait blocks until every background notification has finished or ctx is done.
func (s *IntakeService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AttachScreenshots sets each project's screenshot reference. If any project names
// a screenshotIndex, only explicit indexes are used; otherwise screenshots are
// assigned in upload order.
func AttachScreenshots(drafts []ProjectDraft, screenshotURLs []string) []models.Project {
	explicit := false
	for _, d := range drafts {
		if d.ScreenshotIndex != nil {
			explicit = true
			break
		}
	}

	projects := make([]models.Project, 0, len(drafts))
	for i, d := range drafts {
		project := d.Project

		idx := -1
		switch {
		case explicit && d.ScreenshotIndex != nil:
			idx = *d.ScreenshotIndex
		case !explicit:
			idx = i
		}
		if idx >= 0 && idx < len(screenshotURLs) {
			url := screenshotURLs[idx]
			project.ScreenshotURL = &url
		}

		projects = append(projects, project)
	}
	return projects
}
