package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kinhai-collab/Mira-sub001/internal/dto"
	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/internal/repository/contract"
	"github.com/kinhai-collab/Mira-sub001/pkg/bus"
	"github.com/kinhai-collab/Mira-sub001/pkg/events"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	DisconnectAccount(ctx context.Context, userId uuid.UUID, provider string) error
}

type userService struct {
	userRepo     contract.IUserRepository
	tokenService ITokenService
	upstreamURL  string
	client       *http.Client
	eventBus     *bus.Bus
	log          logger.ILogger
}

func NewUserService(
	userRepo contract.IUserRepository,
	tokenService ITokenService,
	upstreamURL string,
	timeout time.Duration,
	eventBus *bus.Bus,
	log logger.ILogger,
) IUserService {
	return &userService{
		userRepo:     userRepo,
		tokenService: tokenService,
		upstreamURL:  upstreamURL,
		client:       &http.Client{Timeout: timeout},
		eventBus:     eventBus,
		log:          log,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	user, err := s.userRepo.FindById(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	accounts, err := s.userRepo.FindConnectedAccounts(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := &dto.UserProfileResponse{
		Id:        user.Id,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if user.AvatarURL != nil {
		res.AvatarURL = *user.AvatarURL
	}
	for _, acc := range accounts {
		res.ConnectedAccounts = append(res.ConnectedAccounts, dto.ConnectedAccountDTO{
			Provider:    acc.Provider,
			Email:       acc.Email,
			ConnectedAt: acc.ConnectedAt,
		})
	}

	// Prefer upstream profile data when reachable; token-embedded or cached
	// data can be stale. A fresh copy supersedes the cache, a fetch failure
	// silently falls back to whatever we already had.
	if fresh := s.fetchUpstreamProfile(ctx, userId); fresh != nil {
		if fresh.DisplayName != nil && *fresh.DisplayName != "" {
			res.FullName = *fresh.DisplayName
		}
		if fresh.AvatarURL != nil && *fresh.AvatarURL != "" {
			res.AvatarURL = *fresh.AvatarURL
		}
	} else if cached, ok := s.tokenService.CachedProfile(ctx, userId); ok {
		if cached.AvatarURL != nil && res.AvatarURL == "" {
			res.AvatarURL = *cached.AvatarURL
		}
	}

	return res, nil
}

func (s *userService) fetchUpstreamProfile(ctx context.Context, userId uuid.UUID) *entity.UserProfile {
	token := s.tokenService.GetValidToken(ctx, userId, UpstreamProvider)
	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.upstreamURL+"/v1/profile", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	var profile entity.UserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil
	}

	if err := s.tokenService.CacheProfile(ctx, userId, profile); err != nil {
		s.log.Warn("UserService", "Failed to cache fresh profile", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
	return &profile
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	if err := s.userRepo.UpdateProfile(ctx, userId, req.FullName, req.AvatarURL); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		if err := s.eventBus.Publish(events.NewUserUpdated(userId.String())); err != nil {
			s.log.Warn("UserService", "Failed to publish user update event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return s.GetProfile(ctx, userId)
}

func (s *userService) DisconnectAccount(ctx context.Context, userId uuid.UUID, provider string) error {
	if err := s.userRepo.DeleteConnectedAccount(ctx, userId, provider); err != nil {
		return err
	}

	if err := s.tokenService.DropSession(ctx, userId, provider); err != nil {
		s.log.Warn("UserService", "Failed to drop provider session", map[string]interface{}{
			"user_id":  userId.String(),
			"provider": provider,
			"error":    err.Error(),
		})
	}

	if err := s.eventBus.Publish(events.NewUserUpdated(userId.String())); err != nil {
		s.log.Warn("UserService", "Failed to publish user update event", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}
