package dto

import (
	"time"

	"github.com/noah-isme/sport-sections-api/internal/models"
)

// SectionListRequest filters the public catalog.
type SectionListRequest struct {
	Title string
}

// SectionCreateRequest describes the payload for creating a section.
type SectionCreateRequest struct {
	Title       string  `form:"title" json:"title" validate:"required,min=1,max=100"`
	Description *string `form:"description" json:"description" validate:"omitempty,max=500"`
	Location    *string `form:"location" json:"location" validate:"omitempty,max=200"`
	Date        string  `form:"date" json:"date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Instructor  *string `form:"instructor" json:"instructor" validate:"omitempty,max=100"`
	Duration    *int    `form:"duration" json:"duration" validate:"omitempty,min=1,max=1440"`
}

// SectionUpdateRequest lists the mutable section fields. Unknown fields are ignored.
type SectionUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Instructor  *string `json:"instructor" validate:"omitempty,max=100"`
	Duration    *int    `json:"duration" validate:"omitempty,min=1,max=1440"`
}

// SectionResponse is the serialized section returned to clients.
type SectionResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	Instructor  string    `json:"instructor"`
	Duration    int       `json:"duration"`
	ImageURL    string    `json:"image_url"`
}

// SectionListResponse wraps the catalog together with the caller's draft summary.
type SectionListResponse struct {
	Sections           []SectionResponse `json:"sections"`
	DraftApplicationID *uint             `json:"draft_application_id"`
	NumberOfSections   int               `json:"number_of_sections"`
}

// NewSectionResponse converts a model into a DTO.
func NewSectionResponse(section models.Section) SectionResponse {
	return SectionResponse{
		ID:          section.ID,
		Title:       section.Title,
		Description: section.Description,
		Location:    section.Location,
		Date:        section.Date,
		Instructor:  section.Instructor,
		Duration:    section.Duration,
		ImageURL:    section.ImageURL,
	}
}

// NewSectionResponseSlice converts a slice of models into DTOs.
func NewSectionResponseSlice(sections []models.Section) []SectionResponse {
	responses := make([]SectionResponse, 0, len(sections))
	for _, section := range sections {
		responses = append(responses, NewSectionResponse(section))
	}

	return responses
}
