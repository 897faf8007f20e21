package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/internal/repository/contract"
	"github.com/kinhai-collab/Mira-sub001/pkg/bus"
	"github.com/kinhai-collab/Mira-sub001/pkg/events"
)

const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
)

// IOAuthService drives the onboarding flow that connects a Gmail or Outlook
// mailbox. The exchanged tokens go straight into the session store via the
// token service; they never touch the database.
type IOAuthService interface {
	GetConnectURL(provider string) (string, error)
	HandleCallback(ctx context.Context, userId uuid.UUID, provider, code string) (*entity.ConnectedAccount, error)
}

type oauthService struct {
	userRepo     contract.IUserRepository
	tokenService ITokenService
	configs      map[string]*oauth2.Config
	eventBus     *bus.Bus
	log          logger.ILogger
}

func NewOAuthService(
	userRepo contract.IUserRepository,
	tokenService ITokenService,
	eventBus *bus.Bus,
	log logger.ILogger,
) IOAuthService {
	configs := map[string]*oauth2.Config{
		ProviderGoogle: {
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/gmail.readonly",
				"https://www.googleapis.com/auth/calendar",
			},
			Endpoint: google.Endpoint,
		},
		ProviderMicrosoft: {
			ClientID:     os.Getenv("MICROSOFT_CLIENT_ID"),
			ClientSecret: os.Getenv("MICROSOFT_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("MICROSOFT_REDIRECT_URL"),
			Scopes: []string{
				"openid", "profile", "email", "offline_access",
				"Mail.Read", "Calendars.ReadWrite",
			},
			Endpoint: microsoft.AzureADEndpoint("common"),
		},
	}

	return &oauthService{
		userRepo:     userRepo,
		tokenService: tokenService,
		configs:      configs,
		eventBus:     eventBus,
		log:          log,
	}
}

func (s *oauthService) GetConnectURL(provider string) (string, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

type providerIdentity struct {
	id    string
	email string
	name  string
}

func (s *oauthService) HandleCallback(ctx context.Context, userId uuid.UUID, provider, code string) (*entity.ConnectedAccount, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return nil, errors.New("unsupported provider")
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %v", err)
	}

	identity, err := s.fetchIdentity(ctx, provider, token.AccessToken)
	if err != nil {
		return nil, err
	}

	// Persist the token pair through the token service, the sole writer of
	// the session store.
	session := entity.Session{AccessToken: token.AccessToken}
	if token.RefreshToken != "" {
		session.RefreshToken = &token.RefreshToken
	}
	if err := s.tokenService.StoreSession(ctx, userId, provider, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	account := &entity.ConnectedAccount{
		Id:           uuid.New(),
		UserId:       userId,
		Provider:     provider,
		ProviderUser: identity.id,
		Email:        identity.email,
		ConnectedAt:  time.Now(),
	}
	if err := s.userRepo.UpsertConnectedAccount(ctx, account); err != nil {
		return nil, err
	}

	// Cache a first profile copy; the next GetProfile fetch supersedes it.
	displayName := identity.name
	prov := provider
	if err := s.tokenService.CacheProfile(ctx, userId, entity.UserProfile{
		Email:       identity.email,
		DisplayName: &displayName,
		Provider:    &prov,
	}); err != nil {
		s.log.Warn("OAuthService", "Failed to cache profile", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if s.eventBus != nil {
		if err := s.eventBus.Publish(events.NewAccountConnected(userId.String(), provider, identity.email)); err != nil {
			s.log.Warn("OAuthService", "Failed to publish account connect event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return account, nil
}

func (s *oauthService) fetchIdentity(ctx context.Context, provider, accessToken string) (*providerIdentity, error) {
	var userInfoURL string
	switch provider {
	case ProviderGoogle:
		userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	case ProviderMicrosoft:
		userInfoURL = "https://graph.microsoft.com/v1.0/me"
	default:
		return nil, errors.New("unsupported provider")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %v", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info error: status %d", resp.StatusCode)
	}

	if provider == ProviderGoogle {
		var googleUser struct {
			ID      string `json:"id"`
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		}
		if err := json.Unmarshal(content, &googleUser); err != nil {
			return nil, err
		}
		return &providerIdentity{id: googleUser.ID, email: googleUser.Email, name: googleUser.Name}, nil
	}

	var msUser struct {
		ID                string `json:"id"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		DisplayName       string `json:"displayName"`
	}
	if err := json.Unmarshal(content, &msUser); err != nil {
		return nil, err
	}
	email := msUser.Mail
	if email == "" {
		email = msUser.UserPrincipalName
	}
	return &providerIdentity{id: msUser.ID, email: email, name: msUser.DisplayName}, nil
}
