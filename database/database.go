package database

import (
	"context"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"gorm.io/gorm"
)

type Database struct {
	db             *gorm.DB
	submissionRepo *SubmissionRepo
	projectRepo    *ProjectRepo
	sessionRepo    *SessionRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:             db,
		submissionRepo: NewSubmissionRepo(db),
		projectRepo:    NewProjectRepo(db),
		sessionRepo:    NewSessionRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) SubmissionRepo() *SubmissionRepo {
	return d.submissionRepo
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) SessionRepo() *SessionRepo {
	return d.sessionRepo
}

// GetDB returns the underlying database connection for debugging purposes
func (d Database) GetDB() *gorm.DB {
	return d.db
}

// Migrate creates or updates every table the service owns.
func (d Database) Migrate() error {
	return d.db.AutoMigrate(models.All()...)
}

// Ping checks the connection.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateSubmission inserts one submission row and returns it with its server-assigned fields.
func (d Database) CreateSubmission(ctx context.Context, submission *models.Submission) (*models.Submission, error) {
	if err := d.submissionRepo.Add(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

// CreateProjects inserts the projects of an existing submission. An empty list is a no-op.
func (d Database) CreateProjects(ctx context.Context, submissionID uint, projects []models.Project) ([]models.Project, error) {
	return d.projectRepo.AddBatch(ctx, submissionID, projects)
}

// CreateSubmissionWithProjects writes a submission and all of its projects in one
// transaction. If any insert fails nothing is kept.
func (d Database) CreateSubmissionWithProjects(ctx context.Context, submission *models.Submission, projects []models.Project) (*models.SubmissionWithProjects, error) {
	var created *models.SubmissionWithProjects

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewSubmissionRepo(tx).Add(ctx, submission); err != nil {
			return err
		}
		saved, err := NewProjectRepo(tx).AddBatch(ctx, submission.ID, projects)
		if err != nil {
			return err
		}
		created = &models.SubmissionWithProjects{Submission: *submission, Projects: saved}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetSubmissions returns every submission matching filter, newest first, with projects.
func (d Database) GetSubmissions(ctx context.Context, filter SubmissionFilter) ([]*models.SubmissionWithProjects, error) {
	return d.submissionRepo.FindAll(ctx, filter)
}

// GetSubmissionByID returns nil when id is unknown.
func (d Database) GetSubmissionByID(ctx context.Context, id uint) (*models.SubmissionWithProjects, error) {
	return d.submissionRepo.FindByID(ctx, id)
}

// UpdateSubmissionStatus returns nil when id is unknown.
func (d Database) UpdateSubmissionStatus(ctx context.Context, id uint, status models.Status, completed *bool) (*models.Submission, error) {
	return d.submissionRepo.UpdateStatus(ctx, id, status, completed)
}

func (d Database) Stats(ctx context.Context) (models.SubmissionStats, error) {
	return d.submissionRepo.Stats(ctx)
}
