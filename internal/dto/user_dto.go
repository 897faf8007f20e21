package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	ConnectedAccounts []ConnectedAccountDTO `json:"connected_accounts"`
}

type ConnectedAccountDTO struct {
	Provider    string    `json:"provider"`
	Email       string    `json:"email"`
	ConnectedAt time.Time `json:"connected_at"`
}

type UpdateProfileRequest struct {
	FullName  string  `json:"full_name" validate:"required,min=3"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}
