package models

import "time"

// Application statuses.
const (
	ApplicationStatusDraft     = "draft"
	ApplicationStatusCreated   = "created"
	ApplicationStatusCompleted = "completed"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusDeleted   = "deleted"
)

// Application is a user's prioritized request to join sport sections.
type Application struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Status           string     `gorm:"size:32;not null;index" json:"status"`
	CreationDate     time.Time  `gorm:"not null" json:"creation_date"`
	ApplyDate        *time.Time `json:"apply_date"`
	EndDate          *time.Time `json:"end_date"`
	UserID           uint       `gorm:"not null;index;uniqueIndex:idx_applications_single_draft,where:status = 'draft'" json:"user_id"`
	User             User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	ModeratorID      *uint      `gorm:"index" json:"moderator_id"`
	Moderator        *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"moderator"`
	FullName         string     `gorm:"size:100" json:"full_name"`
	NumberOfSections *int       `json:"number_of_sections"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsOwnedBy reports whether the user created the application.
func (a Application) IsOwnedBy(userID uint) bool {
	return a.UserID == userID
}

// IsDecided reports whether a moderator has completed or rejected the application.
func (a Application) IsDecided() bool {
	return a.Status == ApplicationStatusCompleted || a.Status == ApplicationStatusRejected
}

// IsDecisionStatus reports whether status is a valid moderator outcome.
func IsDecisionStatus(status string) bool {
	return status == ApplicationStatusCompleted || status == ApplicationStatusRejected
}
