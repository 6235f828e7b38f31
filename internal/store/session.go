package store

import (
	"errors"
	"fmt"

	"github.com/psyline/psybot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionStore persists one Session per user id.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Get loads the session for a user id. Returns ErrNotFound when the user
// has no session yet.
func (s *SessionStore) Get(userID string) (models.Session, error) {
	var sess models.Session
	err := s.db.First(&sess, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("store: get session %s: %w", userID, err)
	}
	return sess, nil
}

// Save upserts the session.
func (s *SessionStore) Save(sess models.Session) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&sess).Error
	if err != nil {
		return fmt.Errorf("store: save session %s: %w", sess.UserID, err)
	}
	return nil
}

// Delete removes the session for a user id. Deleting an absent session is
// not an error.
func (s *SessionStore) Delete(userID string) error {
	if err := s.db.Delete(&models.Session{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("store: delete session %s: %w", userID, err)
	}
	return nil
}
