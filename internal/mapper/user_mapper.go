package mapper

import (
	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/model"
)

func UserToEntity(m *model.User) *entity.User {
	if m == nil {
		return nil
	}
	return &entity.User{
		Id:           m.Id,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FullName:     m.FullName,
		Role:         entity.UserRole(m.Role),
		Status:       entity.UserStatus(m.Status),
		AvatarURL:    m.AvatarURL,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(e *entity.User) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		Id:           e.Id,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		FullName:     e.FullName,
		Role:         string(e.Role),
		Status:       string(e.Status),
		AvatarURL:    e.AvatarURL,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func ConnectedAccountToEntity(m *model.ConnectedAccount) *entity.ConnectedAccount {
	if m == nil {
		return nil
	}
	return &entity.ConnectedAccount{
		Id:           m.Id,
		UserId:       m.UserId,
		Provider:     m.Provider,
		ProviderUser: m.ProviderUser,
		Email:        m.Email,
		ConnectedAt:  m.ConnectedAt,
	}
}

func ConnectedAccountToModel(e *entity.ConnectedAccount) *model.ConnectedAccount {
	if e == nil {
		return nil
	}
	return &model.ConnectedAccount{
		Id:           e.Id,
		UserId:       e.UserId,
		Provider:     e.Provider,
		ProviderUser: e.ProviderUser,
		Email:        e.Email,
		ConnectedAt:  e.ConnectedAt,
	}
}

func RefreshTokenToEntity(m *model.UserRefreshToken) *entity.UserRefreshToken {
	if m == nil {
		return nil
	}
	return &entity.UserRefreshToken{
		Id:        m.Id,
		UserId:    m.UserId,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt,
		Revoked:   m.Revoked,
		CreatedAt: m.CreatedAt,
		IpAddress: m.IpAddress,
		UserAgent: m.UserAgent,
	}
}

func RefreshTokenToModel(e *entity.UserRefreshToken) *model.UserRefreshToken {
	if e == nil {
		return nil
	}
	return &model.UserRefreshToken{
		Id:        e.Id,
		UserId:    e.UserId,
		TokenHash: e.TokenHash,
		ExpiresAt: e.ExpiresAt,
		Revoked:   e.Revoked,
		CreatedAt: e.CreatedAt,
		IpAddress: e.IpAddress,
		UserAgent: e.UserAgent,
	}
}
