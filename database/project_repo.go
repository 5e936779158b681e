package database

import (
	"context"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"gorm.io/gorm"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// AddBatch inserts every project with its owner set to submissionID.
// An empty list is a no-op and returns an empty list.
func (r *ProjectRepo) AddBatch(ctx context.Context, submissionID uint, projects []models.Project) ([]models.Project, error) {
	if len(projects) == 0 {
		return []models.Project{}, nil
	}

	rows := make([]models.Project, len(projects))
	for i, p := range projects {
		p.ID = 0
		p.SubmissionID = submissionID
		p.Submission = nil
		rows[i] = p
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindBySubmissionID returns the projects of one submission in insertion order.
func (r *ProjectRepo) FindBySubmissionID(ctx context.Context, submissionID uint) ([]models.Project, error) {
	projects := []models.Project{}
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&projects).Error
	return projects, err
}

// FindBySubmissionIDs fetches the projects of many submissions in one query.
func (r *ProjectRepo) FindBySubmissionIDs(ctx context.Context, submissionIDs []uint) (map[uint][]models.Project, error) {
	grouped := make(map[uint][]models.Project, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return grouped, nil
	}

	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("submission_id IN ?", submissionIDs).
		Order("id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	for _, p := range projects {
		grouped[p.SubmissionID] = append(grouped[p.SubmissionID], p)
	}
	return grouped, nil
}
