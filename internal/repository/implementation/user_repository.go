package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/mapper"
	"github.com/kinhai-collab/Mira-sub001/internal/model"
	"github.com/kinhai-collab/Mira-sub001/internal/repository/contract"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) contract.IUserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(mapper.UserToModel(user)).Error
}

func (r *userRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var m model.User
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapper.UserToEntity(&m), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var m model.User
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapper.UserToEntity(&m), nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, avatarURL *string) error {
	updates := map[string]interface{}{"full_name": fullName}
	if avatarURL != nil {
		updates["avatar_url"] = *avatarURL
	}
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *userRepository) UpsertConnectedAccount(ctx context.Context, account *entity.ConnectedAccount) error {
	m := mapper.ConnectedAccountToModel(account)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider_user", "email"}),
	}).Create(m).Error
}

func (r *userRepository) FindConnectedAccounts(ctx context.Context, userId uuid.UUID) ([]entity.ConnectedAccount, error) {
	var models []model.ConnectedAccount
	if err := r.db.WithContext(ctx).Where("user_id = ?", userId).Find(&models).Error; err != nil {
		return nil, err
	}
	accounts := make([]entity.ConnectedAccount, len(models))
	for i := range models {
		accounts[i] = *mapper.ConnectedAccountToEntity(&models[i])
	}
	return accounts, nil
}

func (r *userRepository) DeleteConnectedAccount(ctx context.Context, userId uuid.UUID, provider string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userId, provider).
		Delete(&model.ConnectedAccount{}).Error
}

func (r *userRepository) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	return r.db.WithContext(ctx).Create(mapper.RefreshTokenToModel(token)).Error
}

func (r *userRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*entity.UserRefreshToken, error) {
	var m model.UserRefreshToken
	err := r.db.WithContext(ctx).First(&m, "token_hash = ? AND revoked = false", tokenHash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapper.RefreshTokenToEntity(&m), nil
}

func (r *userRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&model.UserRefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}
