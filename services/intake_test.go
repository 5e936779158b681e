package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/errs"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/Mani-Selvam/Portfolio-Builder/backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	}
)

const janeDoe = `{"fullName":"Jane Doe","email":"jane@example.com","professionalTitle":"Designer","bio":"Ten+ chars of bio.","projects":[]}`

type fakeWriter struct {
	calls int
	err   error
	got   *models.SubmissionWithProjects
}

func (w *fakeWriter) CreateSubmissionWithProjects(ctx context.Context, s *models.Submission, projects []models.Project) (*models.SubmissionWithProjects, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	s.ID = 42
	if projects == nil {
		projects = []models.Project{}
	}
	w.got = &models.SubmissionWithProjects{Submission: *s, Projects: projects}
	return w.got, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []uint
	err   error
}

func (n *recordingNotifier) SubmissionReceived(ctx context.Context, s *models.SubmissionWithProjects) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, s.ID)
	return n.err
}

func newIntake(t *testing.T) (*IntakeService, *fakeWriter, *recordingNotifier, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewDiskStore(dir, storage.DefaultLimits)
	require.NoError(t, err)

	writer := &fakeWriter{}
	notifier := &recordingNotifier{}
	return NewIntakeService(store, writer, notifier), writer, notifier, dir
}

func resumeUpload() *storage.Upload {
	return &storage.Upload{FileName: "cv.pdf", ContentType: "application/pdf", Data: pdfBytes}
}

func TestSubmitJaneDoe(t *testing.T) {
	svc, writer, notifier, dir := newIntake(t)

	created, err := svc.Submit(context.Background(), IntakeRequest{Data: janeDoe, Resume: resumeUpload()})
	require.NoError(t, err)

	assert.Equal(t, uint(42), created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.False(t, created.Completed)
	assert.Empty(t, created.Projects)
	assert.Regexp(t, `^/api/uploads/resume-\d+-[0-9a-f]{12}\.pdf$`, created.ResumeURL)

	require.NoError(t, svc.Wait(context.Background()))
	assert.Equal(t, []uint{42}, notifier.calls)
	assert.Equal(t, 1, writer.calls)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubmitWithoutResume(t *testing.T) {
	svc, writer, notifier, dir := newIntake(t)

	_, err := svc.Submit(context.Background(), IntakeRequest{
		Data:         janeDoe,
		ProfilePhoto: &storage.Upload{FileName: "me.png", ContentType: "image/png", Data: pngBytes},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrMissingRequiredField)
	assert.Equal(t, 400, errs.StatusCode(err))
	assert.Zero(t, writer.calls)
	assert.Empty(t, notifier.calls)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is written when the resume is missing")
}

func TestSubmitValidationFailure(t *testing.T) {
	svc, writer, _, _ := newIntake(t)

	_, err := svc.Submit(context.Background(), IntakeRequest{
		Data:   `{"fullName":"Jane Doe","email":"jane@example.com","professionalTitle":"Designer","bio":"short"}`,
		Resume: resumeUpload(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Zero(t, writer.calls)
}

func TestSubmitRejectsWrongFileType(t *testing.T) {
	svc, writer, _, _ := newIntake(t)

	_, err := svc.Submit(context.Background(), IntakeRequest{
		Data:   janeDoe,
		Resume: &storage.Upload{FileName: "cv.png", ContentType: "image/png", Data: pngBytes},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidFileType)

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "resume", apiErr.Field)
	assert.Zero(t, writer.calls)
}

func TestSubmitMatchesScreenshots(t *testing.T) {
	svc, writer, _, _ := newIntake(t)

	data := `{"fullName":"Jane Doe","email":"jane@example.com","professionalTitle":"Designer","bio":"Ten+ chars of bio.",
		"projects":[{"title":"One","description":"first"},{"title":"Two","description":"second","screenshotIndex":0}]}`
	shot := storage.Upload{FileName: "shot.png", ContentType: "image/png", Data: pngBytes}

	created, err := svc.Submit(context.Background(), IntakeRequest{
		Data:               data,
		Resume:             resumeUpload(),
		ProjectScreenshots: []storage.Upload{shot},
	})
	require.NoError(t, err)
	require.Len(t, writer.got.Projects, 2)
	assert.Nil(t, created.Projects[0].ScreenshotURL)
	require.NotNil(t, created.Projects[1].ScreenshotURL)
	assert.Contains(t, *created.Projects[1].ScreenshotURL, "/api/uploads/project-screenshot-")
}

func TestSubmitPersistenceFailure(t *testing.T) {
	svc, writer, notifier, _ := newIntake(t)
	writer.err = errors.New("insert projects: connection reset")

	_, err := svc.Submit(context.Background(), IntakeRequest{Data: janeDoe, Resume: resumeUpload()})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTransactionFailed)
	assert.Equal(t, 500, errs.StatusCode(err))
	assert.Empty(t, notifier.calls)
}

func TestSubmitIgnoresNotificationFailure(t *testing.T) {
	svc, _, notifier, _ := newIntake(t)
	notifier.err = errors.New("smtp down")

	created, err := svc.Submit(context.Background(), IntakeRequest{Data: janeDoe, Resume: resumeUpload()})
	require.NoError(t, err)
	assert.Equal(t, uint(42), created.ID)
	require.NoError(t, svc.Wait(context.Background()))
}

type blockingNotifier struct {
	release chan struct{}
	done    chan uint
}

func (n *blockingNotifier) SubmissionReceived(ctx context.Context, s *models.SubmissionWithProjects) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	n.done <- s.ID
	return nil
}

func TestSubmitDoesNotWaitForNotifications(t *testing.T) {
	store, err := storage.NewDiskStore(t.TempDir(), storage.DefaultLimits)
	require.NoError(t, err)
	notifier := &blockingNotifier{release: make(chan struct{}), done: make(chan uint, 1)}
	svc := NewIntakeService(store, &fakeWriter{}, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	created, err := svc.Submit(ctx, IntakeRequest{Data: janeDoe, Resume: resumeUpload()})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	// the request context ending must not cancel the notification
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	assert.ErrorIs(t, svc.Wait(waitCtx), context.DeadlineExceeded)

	close(notifier.release)
	require.NoError(t, svc.Wait(context.Background()))
	assert.Equal(t, created.ID, <-notifier.done)
}

func TestSubmitTooManyScreenshots(t *testing.T) {
	svc, _, _, _ := newIntake(t)

	shots := make([]storage.Upload, MaxProjectScreenshots+1)
	_, err := svc.Submit(context.Background(), IntakeRequest{Data: janeDoe, Resume: resumeUpload(), ProjectScreenshots: shots})
	require.Error(t, err)
	assert.Equal(t, 400, errs.StatusCode(err))
}
