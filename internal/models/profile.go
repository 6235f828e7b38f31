package models

import "time"

// Role is a user's access level.
type Role string

const (
	RoleUser         Role = "user"
	RolePsychologist Role = "psychologist"
	RoleAdmin        Role = "admin"
)

// UserProfile is one row per distinct user identifier ever seen by the role
// directory. Username and names are captured once at creation and never
// updated afterwards.
type UserProfile struct {
	UserID    string `gorm:"primaryKey;size:64"`
	Role      Role   `gorm:"size:16;not null;default:user;index"`
	Username  string `gorm:"size:64"`
	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the best human-readable label for the profile.
func (p UserProfile) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	if p.FirstName != "" {
		if p.LastName != "" {
			return p.FirstName + " " + p.LastName
		}
		return p.FirstName
	}
	return p.UserID
}
