package models

// Priority ranks a section inside an application. Ranks of one application form the
// dense sequence 1..N.
type Priority struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ApplicationID uint        `gorm:"not null;index;uniqueIndex:idx_priorities_application_section" json:"application_id"`
	SectionID     uint        `gorm:"not null;uniqueIndex:idx_priorities_application_section" json:"section_id"`
	Priority      int         `gorm:"not null" json:"priority"`
	Classroom     string      `gorm:"size:16" json:"classroom"`
	Application   Application `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Section       Section     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"section"`
}
