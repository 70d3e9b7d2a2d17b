package models

import "time"

// User is an account that owns applications and, with staff or superuser rights, moderates them.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// User roles derived from the staff and superuser flags.
const (
	UserRoleRegular   = "user"
	UserRoleModerator = "moderator"
	UserRoleAdmin     = "admin"
)

// IsModerator reports whether the user may approve or reject applications.
func (u User) IsModerator() bool {
	return u.IsStaff || u.IsSuperuser
}

// Role returns the most privileged role the user holds.
func (u User) Role() string {
	switch {
	case u.IsSuperuser:
		return UserRoleAdmin
	case u.IsStaff:
		return UserRoleModerator
	default:
		return UserRoleRegular
	}
}
