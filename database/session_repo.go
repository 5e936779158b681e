package database

import (
	"context"
	"errors"
	"time"

	"github.com/Mani-Selvam/Portfolio-Builder/backend/models"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type SessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db}
}

// Add inserts a new session row.
func (r *SessionRepo) Add(ctx context.Context, session *models.AdminSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindBySID returns the session, or nil when none exists. Sessions are read from
// the primary so a login is visible on the very next request.
func (r *SessionRepo) FindBySID(ctx context.Context, sid string) (*models.AdminSession, error) {
	var session models.AdminSession
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).Where("sid = ?", sid).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes a session. Deleting an unknown sid is not an error.
func (r *SessionRepo) Delete(ctx context.Context, sid string) error {
	return r.db.WithContext(ctx).Where("sid = ?", sid).Delete(&models.AdminSession{}).Error
}

// DeleteExpired removes every session that expired before now and reports how many.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expire < ?", now).Delete(&models.AdminSession{})
	return result.RowsAffected, result.Error
}
