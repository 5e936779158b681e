package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDatabase(t *testing.T) Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	d := New(db)
	require.NoError(t, d.Migrate())
	return d
}

func newSubmission(name string) *models.Submission {
	return &models.Submission{
		FullName:          name,
		Email:             "someone@example.com",
		ProfessionalTitle: "Engineer",
		Bio:               "Builds things for the web.",
		ResumeURL:         "/api/uploads/resume-1-abc.pdf",
	}
}

func strPtr(s string) *string { return &s }

func TestCreateSubmissionWithProjects(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	created, err := d.CreateSubmissionWithProjects(ctx, newSubmission("Jane Doe"), []models.Project{
		{Title: "One", Description: "first", ScreenshotURL: strPtr("/api/uploads/a.png")},
		{Title: "Two", Description: "second"},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.False(t, created.Completed)

	got, err := d.GetSubmissionByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Projects, 2)
	assert.Equal(t, "One", got.Projects[0].Title)
	assert.Equal(t, created.ID, got.Projects[1].SubmissionID)
	assert.Equal(t, "/api/uploads/a.png", *got.Projects[0].ScreenshotURL)
}

func TestCreateSubmissionWithoutProjects(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	created, err := d.CreateSubmissionWithProjects(ctx, newSubmission("Jane Doe"), nil)
	require.NoError(t, err)
	assert.NotNil(t, created.Projects)
	assert.Empty(t, created.Projects)

	projects, err := d.CreateProjects(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestCreateSubmissionWithProjectsRollsBack(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	err := d.GetDB().Callback().Create().Before("gorm:create").Register("test:fail_projects", func(tx *gorm.DB) {
		if tx.Statement.Table == "projects" {
			tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = d.CreateSubmissionWithProjects(ctx, newSubmission("Jane Doe"), []models.Project{{Title: "t", Description: "d"}})
	require.Error(t, err)

	var count int64
	require.NoError(t, d.GetDB().Model(&models.Submission{}).Count(&count).Error)
	assert.Zero(t, count, "no submission row survives a failed project insert")
}

func TestGetSubmissionByIDUnknown(t *testing.T) {
	got, err := newTestDatabase(t).GetSubmissionByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSubmissionsOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"Alice Old", "Bob Middle", "Carol 100%_New"} {
		s := newSubmission(name)
		s.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := d.CreateSubmission(ctx, s)
		require.NoError(t, err)
	}
	// same timestamp as Carol, inserted later: the higher id comes first
	tie := newSubmission("Dan Tie")
	tie.CreatedAt = base.Add(2 * time.Hour)
	_, err := d.CreateSubmission(ctx, tie)
	require.NoError(t, err)

	all, err := d.GetSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Dan Tie", all[0].FullName)
	assert.Equal(t, "Carol 100%_New", all[1].FullName)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
		assert.NotNil(t, all[i].Projects)
	}

	found, err := d.GetSubmissions(ctx, SubmissionFilter{Search: "bob"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bob Middle", found[0].FullName)

	found, err = d.GetSubmissions(ctx, SubmissionFilter{Search: "100%_"})
	require.NoError(t, err)
	require.Len(t, found, 1, "LIKE wildcards in the search are literal")

	_, err = d.UpdateSubmissionStatus(ctx, all[3].ID, models.StatusInProgress, nil)
	require.NoError(t, err)
	found, err = d.GetSubmissions(ctx, SubmissionFilter{Status: models.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Alice Old", found[0].FullName)
}

func TestGetSubmissionsBatchesProjects(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	a, err := d.CreateSubmissionWithProjects(ctx, newSubmission("A"), []models.Project{{Title: "a1", Description: "d"}})
	require.NoError(t, err)
	b, err := d.CreateSubmissionWithProjects(ctx, newSubmission("B"), []models.Project{{Title: "b1", Description: "d"}, {Title: "b2", Description: "d"}})
	require.NoError(t, err)

	all, err := d.GetSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)

	counts := map[uint]int{}
	for _, s := range all {
		counts[s.ID] = len(s.Projects)
	}
	assert.Equal(t, map[uint]int{a.ID: 1, b.ID: 2}, counts)
}

func TestUpdateSubmissionStatus(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	created, err := d.CreateSubmission(ctx, newSubmission("Jane Doe"))
	require.NoError(t, err)

	updated, err := d.UpdateSubmissionStatus(ctx, created.ID, models.StatusCompleted, nil)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.False(t, updated.Completed, "completed is untouched when not provided")
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	done := true
	updated, err = d.UpdateSubmissionStatus(ctx, created.ID, models.StatusCompleted, &done)
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	missing, err := d.UpdateSubmissionStatus(ctx, 12345, models.StatusCompleted, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	d := newTestDatabase(t)

	stats, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStats{}, stats)

	done := true
	for i := 0; i < 4; i++ {
		s, err := d.CreateSubmission(ctx, newSubmission("x"))
		require.NoError(t, err)
		switch i {
		case 1:
			_, err = d.UpdateSubmissionStatus(ctx, s.ID, models.StatusInProgress, nil)
		case 2:
			_, err = d.UpdateSubmissionStatus(ctx, s.ID, models.StatusCompleted, &done)
		}
		require.NoError(t, err)
	}

	stats, err = d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStats{Total: 4, Pending: 2, InProgress: 1, Completed: 1}, stats)
}

func TestSessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestDatabase(t).SessionRepo()
	now := time.Now()

	require.NoError(t, repo.Add(ctx, &models.AdminSession{SID: "live", Sess: datatypes.JSONMap{"isAdmin": true, "username": "admin"}, Expire: now.Add(time.Hour)}))
	require.NoError(t, repo.Add(ctx, &models.AdminSession{SID: "stale", Sess: datatypes.JSONMap{"isAdmin": true}, Expire: now.Add(-time.Hour)}))

	live, err := repo.FindBySID(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.True(t, live.IsAdmin())
	assert.Equal(t, "admin", live.Username())

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, "live"))
	require.NoError(t, repo.Delete(ctx, "never-existed"))

	gone, err := repo.FindBySID(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
