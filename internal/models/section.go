package models

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied to sections created without the optional attributes.
const (
	DefaultSectionDescription = "У этой секции нет описания"
	DefaultSectionLocation    = "СК МГТУ"
	DefaultSectionInstructor  = "Петров Петр Петрович"
	DefaultSectionDuration    = 90
)

// Section is a sport offering users can put into their applications.
type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"size:500;not null" json:"description"`
	Location    string    `gorm:"size:200;not null" json:"location"`
	Date        time.Time `gorm:"not null" json:"date"`
	Instructor  string    `gorm:"size:100;not null" json:"instructor"`
	Duration    int       `gorm:"not null" json:"duration"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImageKey is the object-store key of the section picture.
func (s Section) ImageKey() string {
	return fmt.Sprintf("%d.png", s.ID)
}

// LocationWithClassroom annotates the location with an assigned classroom. Locations that
// already carry an annotation (contain a colon) are returned unchanged.
func (s Section) LocationWithClassroom(classroom string) string {
	if classroom == "" || strings.Contains(s.Location, ":") {
		return s.Location
	}
	return s.Location + ": " + classroom + " аудитория"
}
