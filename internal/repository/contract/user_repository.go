package contract

import (
	"context"

	"github.com/google/uuid"

	"github.com/kinhai-collab/Mira-sub001/internal/entity"
)

type IUserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, avatarURL *string) error

	UpsertConnectedAccount(ctx context.Context, account *entity.ConnectedAccount) error
	FindConnectedAccounts(ctx context.Context, userId uuid.UUID) ([]entity.ConnectedAccount, error)
	DeleteConnectedAccount(ctx context.Context, userId uuid.UUID, provider string) error

	CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*entity.UserRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}
