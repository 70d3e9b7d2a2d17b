package dto

import (
	"time"

	"github.com/noah-isme/sport-sections-api/internal/models"
)

// ApplicationListRequest filters submitted applications.
type ApplicationListRequest struct {
	Status        string `validate:"omitempty,oneof=created completed rejected"`
	ApplyDateFrom string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ApplyDateTo   string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AddSectionRequest adds a section to the caller's draft.
type AddSectionRequest struct {
	SectionID uint `json:"section_id" validate:"required"`
}

// ApplicationUpdateRequest lists the fields an owner may change on a draft.
type ApplicationUpdateRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
}

// DecisionRequest carries a moderator outcome.
type DecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=completed rejected"`
}

// DraftResponse summarises the caller's draft after a mutation.
type DraftResponse struct {
	DraftApplicationID uint `json:"draft_application_id"`
	NumberOfSections   int  `json:"number_of_sections"`
}

// ApplicationResponse is the serialized application header.
type ApplicationResponse struct {
	ID               uint       `json:"id"`
	Status           string     `json:"status"`
	CreationDate     time.Time  `json:"creation_date"`
	ApplyDate        *time.Time `json:"apply_date"`
	EndDate          *time.Time `json:"end_date"`
	User             string     `json:"user"`
	Moderator        *string    `json:"moderator"`
	FullName         string     `json:"full_name"`
	NumberOfSections *int       `json:"number_of_sections"`
}

// PrioritizedSectionResponse is one entry of an application's ordered section list.
type PrioritizedSectionResponse struct {
	Priority  int             `json:"priority"`
	Classroom string          `json:"classroom,omitempty"`
	Section   SectionResponse `json:"section"`
}

// ApplicationDetailResponse bundles an application with its ordered sections.
type ApplicationDetailResponse struct {
	Application ApplicationResponse          `json:"application"`
	Sections    []PrioritizedSectionResponse `json:"sections"`
}

// NewApplicationResponse converts a model into a DTO. User and Moderator must be preloaded.
func NewApplicationResponse(application models.Application) ApplicationResponse {
	response := ApplicationResponse{
		ID:               application.ID,
		Status:           application.Status,
		CreationDate:     application.CreationDate,
		ApplyDate:        application.ApplyDate,
		EndDate:          application.EndDate,
		User:             application.User.Email,
		FullName:         application.FullName,
		NumberOfSections: application.NumberOfSections,
	}
	if application.Moderator != nil {
		email := application.Moderator.Email
		response.Moderator = &email
	}

	return response
}

// NewApplicationResponseSlice converts a slice of models into DTOs.
func NewApplicationResponseSlice(applications []models.Application) []ApplicationResponse {
	responses := make([]ApplicationResponse, 0, len(applications))
	for _, application := range applications {
		responses = append(responses, NewApplicationResponse(application))
	}

	return responses
}
