package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type SubmissionRepo struct {
	db *gorm.DB
}

func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db}
}

// SubmissionFilter narrows FindAll. Zero values match everything.
type SubmissionFilter struct {
	Status models.Status
	Search string
}

// Add inserts a new submission. Status defaults to pending and completed to false.
func (r *SubmissionRepo) Add(ctx context.Context, submission *models.Submission) error {
	if submission.Status == "" {
		submission.Status = models.StatusPending
	}
	return r.db.WithContext(ctx).Create(submission).Error
}

// FindAll returns submissions newest first, each with its projects.
func (r *SubmissionRepo) FindAll(ctx context.Context, filter SubmissionFilter) ([]*models.SubmissionWithProjects, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(full_name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(professional_title) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Order("id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, len(submissions))
	for i, s := range submissions {
		ids[i] = s.ID
	}
	projectsBySubmission, err := NewProjectRepo(r.db).FindBySubmissionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*models.SubmissionWithProjects, 0, len(submissions))
	for _, s := range submissions {
		projects := projectsBySubmission[s.ID]
		if projects == nil {
			projects = []models.Project{}
		}
		out = append(out, &models.SubmissionWithProjects{Submission: s, Projects: projects})
	}
	return out, nil
}

// FindByID returns the submission with its projects, or nil when the id is unknown.
func (r *SubmissionRepo) FindByID(ctx context.Context, id uint) (*models.SubmissionWithProjects, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).First(&submission, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	projects, err := NewProjectRepo(r.db).FindBySubmissionID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SubmissionWithProjects{Submission: submission, Projects: projects}, nil
}

// UpdateStatus sets status and updatedAt, and completed only when it is non-nil.
// It returns nil when the id is unknown.
func (r *SubmissionRepo) UpdateStatus(ctx context.Context, id uint, status models.Status, completed *bool) (*models.Submission, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if completed != nil {
		updates["completed"] = *completed
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	// read back from the primary, a replica may not have the update yet
	var submission models.Submission
	if err := r.db.WithContext(ctx).Clauses(dbresolver.Write).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

// Stats counts submissions per status. Completed counts the completed flag, not the status.
func (r *SubmissionRepo) Stats(ctx context.Context) (models.SubmissionStats, error) {
	var stats models.SubmissionStats
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress, "+
				"COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed",
			models.StatusPending, models.StatusInProgress,
		).
		Scan(&stats).Error
	return stats, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
