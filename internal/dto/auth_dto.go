package dto

import (
	"time"

	"github.com/noah-isme/sport-sections-api/internal/models"
)

// RegisterRequest describes the sign-up payload. Staff flags are never accepted here.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdateRequest lists the profile fields a user may change.
type ProfileUpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=8,max=128"`
}

// UserResponse is the public representation of an account.
type UserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Role:        user.Role(),
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
	}
}
