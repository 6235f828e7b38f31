package store

import (
	"errors"
	"fmt"

	"github.com/psyline/psybot/internal/models"
	"gorm.io/gorm"
)

// UserMeta carries the optional profile metadata delivered by a transport
// adapter with a message.
type UserMeta struct {
	Username  string
	FirstName string
	LastName  string
}

// RoleDirectory resolves user identifiers to roles and manages promotions.
// Users named in adminIDs are treated as admins even before a profile row
// exists for them.
type RoleDirectory struct {
	db       *gorm.DB
	adminIDs map[string]bool
}

// NewRoleDirectory creates a RoleDirectory with the configured admin ids.
func NewRoleDirectory(db *gorm.DB, adminIDs []string) *RoleDirectory {
	set := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		set[id] = true
	}
	return &RoleDirectory{db: db, adminIDs: set}
}

// GetOrCreate returns the profile for a user id, creating it on first
// contact. Metadata is first-write-wins: it is never updated for an
// existing profile. The admin set overrides the stored role, so a profile
// that predates the user's admin_ids entry still comes back as admin.
func (d *RoleDirectory) GetOrCreate(userID string, meta *UserMeta) (models.UserProfile, error) {
	var p models.UserProfile
	err := d.db.First(&p, "user_id = ?", userID).Error
	if err == nil {
		if d.adminIDs[userID] {
			p.Role = models.RoleAdmin
		}
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserProfile{}, fmt.Errorf("store: get profile %s: %w", userID, err)
	}

	role := models.RoleUser
	if d.adminIDs[userID] {
		role = models.RoleAdmin
	}
	p = models.UserProfile{UserID: userID, Role: role}
	if meta != nil {
		p.Username = meta.Username
		p.FirstName = meta.FirstName
		p.LastName = meta.LastName
	}
	if err := d.db.Create(&p).Error; err != nil {
		return models.UserProfile{}, fmt.Errorf("store: create profile %s: %w", userID, err)
	}
	return p, nil
}

// Get loads a profile. Returns ErrNotFound for unknown ids.
func (d *RoleDirectory) Get(userID string) (models.UserProfile, error) {
	var p models.UserProfile
	err := d.db.First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("store: get profile %s: %w", userID, err)
	}
	return p, nil
}

// FindByUsername resolves an @handle (without the @) to a profile.
func (d *RoleDirectory) FindByUsername(username string) (models.UserProfile, error) {
	var p models.UserProfile
	err := d.db.First(&p, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("store: find profile @%s: %w", username, err)
	}
	return p, nil
}

// Role resolves a user id to its role. The admin set short-circuits the
// directory lookup; unknown users default to the ordinary user role.
func (d *RoleDirectory) Role(userID string) (models.Role, error) {
	if d.adminIDs[userID] {
		return models.RoleAdmin, nil
	}
	p, err := d.Get(userID)
	if errors.Is(err, ErrNotFound) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

// IsAdmin reports whether the user id is an administrator.
func (d *RoleDirectory) IsAdmin(userID string) (bool, error) {
	role, err := d.Role(userID)
	return role == models.RoleAdmin, err
}

// Promote raises an ordinary user to psychologist. Returns false for
// unknown users, admins, and users who are already psychologists.
func (d *RoleDirectory) Promote(userID string) (bool, error) {
	p, err := d.Get(userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if p.Role != models.RoleUser {
		return false, nil
	}
	if err := d.db.Model(&p).Update("role", models.RolePsychologist).Error; err != nil {
		return false, fmt.Errorf("store: promote %s: %w", userID, err)
	}
	return true, nil
}

// Demote lowers a psychologist back to ordinary user. Returns false unless
// the user is currently a psychologist.
func (d *RoleDirectory) Demote(userID string) (bool, error) {
	p, err := d.Get(userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if p.Role != models.RolePsychologist {
		return false, nil
	}
	if err := d.db.Model(&p).Update("role", models.RoleUser).Error; err != nil {
		return false, fmt.Errorf("store: demote %s: %w", userID, err)
	}
	return true, nil
}

// ListByRole returns all profiles with the given role, ordered by creation
// time so the listing is stable between calls.
func (d *RoleDirectory) ListByRole(role models.Role) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if err := d.db.Where("role = ?", role).Order("created_at, user_id").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("store: list role %s: %w", role, err)
	}
	return profiles, nil
}
