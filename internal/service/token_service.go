package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/internal/store"
	"github.com/kinhai-collab/Mira-sub001/pkg/bus"
	"github.com/kinhai-collab/Mira-sub001/pkg/events"
)

// expirySkew makes a token count as expired this long before its exp claim,
// so an upstream call never leaves with a token about to die mid-flight.
const expirySkew = 60 * time.Second

// ITokenService owns the access/refresh token pair for every connected
// provider account. It is the only component that touches the session store;
// everything else asks it for a valid bearer token. None of its read paths
// return errors: every network or parse failure degrades to "no valid token"
// and the caller forces re-login.
type ITokenService interface {
	// GetStoredToken reads the persisted access token, "" if absent.
	GetStoredToken(ctx context.Context, userId uuid.UUID, provider string) string

	// IsExpired reports whether the token expires within the skew window.
	// Unparseable tokens count as expired; tokens without an exp claim never do.
	IsExpired(token string) bool

	// Refresh exchanges the persisted refresh token for a new pair. On any
	// failure it returns "" and leaves the stored session untouched.
	Refresh(ctx context.Context, userId uuid.UUID, provider string) string

	// GetValidToken returns a non-expired access token, refreshing if needed.
	// "" means the caller must force re-login.
	GetValidToken(ctx context.Context, userId uuid.UUID, provider string) string

	// StoreSession persists a freshly issued token pair (login/OAuth callback).
	StoreSession(ctx context.Context, userId uuid.UUID, provider string, session entity.Session) error

	// CacheProfile / CachedProfile manage the profile copy that lives next to
	// the session. A fresh fetch always supersedes the cached one.
	CacheProfile(ctx context.Context, userId uuid.UUID, profile entity.UserProfile) error
	CachedProfile(ctx context.Context, userId uuid.UUID) (*entity.UserProfile, bool)

	// DropSession removes a single provider's session (account disconnect).
	DropSession(ctx context.Context, userId uuid.UUID, provider string) error

	// Clear deletes every session and profile key for the user.
	Clear(ctx context.Context, userId uuid.UUID) error
}

type refreshEndpoints map[string]string

type tokenService struct {
	kv        store.KV
	client    *http.Client
	endpoints refreshEndpoints
	eventBus  *bus.Bus
	log       logger.ILogger
	nowFn     func() time.Time
}

// NewTokenService builds the token manager. refreshURLs maps a provider name
// to the endpoint that exchanges its refresh token, e.g.
// {"mira": "https://api.mira.app/auth/refresh"}.
func NewTokenService(kv store.KV, refreshURLs map[string]string, timeout time.Duration, eventBus *bus.Bus, log logger.ILogger) ITokenService {
	return &tokenService{
		kv:        kv,
		client:    &http.Client{Timeout: timeout},
		endpoints: refreshURLs,
		eventBus:  eventBus,
		log:       log,
		nowFn:     time.Now,
	}
}

func sessionKey(userId uuid.UUID, provider string) string {
	return fmt.Sprintf("%suser:%s:session:%s", store.Prefix, userId, provider)
}

func profileKey(userId uuid.UUID) string {
	return fmt.Sprintf("%suser:%s:profile", store.Prefix, userId)
}

func userPrefix(userId uuid.UUID) string {
	return fmt.Sprintf("%suser:%s:", store.Prefix, userId)
}

func (s *tokenService) loadSession(ctx context.Context, userId uuid.UUID, provider string) *entity.Session {
	raw, found, err := s.kv.Get(ctx, sessionKey(userId, provider))
	if err != nil || !found {
		return nil
	}
	var session entity.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		s.log.Warn("TokenService", "Corrupt session payload dropped", map[string]interface{}{
			"user_id":  userId.String(),
			"provider": provider,
		})
		return nil
	}
	return &session
}

func (s *tokenService) GetStoredToken(ctx context.Context, userId uuid.UUID, provider string) string {
	session := s.loadSession(ctx, userId, provider)
	if session == nil {
		return ""
	}
	return session.AccessToken
}

func (s *tokenService) IsExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Fail closed: a token we cannot read is a token we will not send.
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		// No expiry claim means valid indefinitely. The upstream decides
		// whether to honor it; we just don't refresh on its behalf.
		return false
	}

	return s.nowFn().Add(expirySkew).After(exp.Time)
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *tokenService) Refresh(ctx context.Context, userId uuid.UUID, provider string) string {
	session := s.loadSession(ctx, userId, provider)
	if session == nil || session.RefreshToken == nil || *session.RefreshToken == "" {
		return ""
	}

	endpoint, ok := s.endpoints[provider]
	if !ok {
		s.log.Warn("TokenService", "No refresh endpoint for provider", map[string]interface{}{
			"provider": provider,
		})
		return ""
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": *session.RefreshToken})
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("TokenService", "Refresh request failed", map[string]interface{}{
			"user_id":  userId.String(),
			"provider": provider,
			"error":    err.Error(),
		})
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn("TokenService", "Refresh rejected by upstream", map[string]interface{}{
			"user_id":  userId.String(),
			"provider": provider,
			"status":   resp.StatusCode,
		})
		return ""
	}

	var refreshed refreshResponse
	if err := json.Unmarshal(body, &refreshed); err != nil || refreshed.AccessToken == "" {
		return ""
	}

	// Overwrite both tokens. An upstream that rotates refresh tokens sends a
	// new one; one that doesn't leaves the old one valid.
	next := entity.Session{AccessToken: refreshed.AccessToken}
	if refreshed.RefreshToken != "" {
		next.RefreshToken = &refreshed.RefreshToken
	} else {
		next.RefreshToken = session.RefreshToken
	}

	if err := s.StoreSession(ctx, userId, provider, next); err != nil {
		// The new token is still good for this call even if persisting failed.
		s.log.Error("TokenService", "Failed to persist refreshed session", map[string]interface{}{
			"user_id":  userId.String(),
			"provider": provider,
			"error":    err.Error(),
		})
	}

	if s.eventBus != nil {
		if err := s.eventBus.Publish(events.NewSessionRefreshed(userId.String(), provider)); err != nil {
			s.log.Warn("TokenService", "Failed to publish session refresh event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return refreshed.AccessToken
}

func (s *tokenService) GetValidToken(ctx context.Context, userId uuid.UUID, provider string) string {
	token := s.GetStoredToken(ctx, userId, provider)
	if token != "" && !s.IsExpired(token) {
		return token
	}
	return s.Refresh(ctx, userId, provider)
}

func (s *tokenService) StoreSession(ctx context.Context, userId uuid.UUID, provider string, session entity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.kv.Set(ctx, sessionKey(userId, provider), string(raw))
}

func (s *tokenService) CacheProfile(ctx context.Context, userId uuid.UUID, profile entity.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.kv.Set(ctx, profileKey(userId), string(raw))
}

func (s *tokenService) CachedProfile(ctx context.Context, userId uuid.UUID) (*entity.UserProfile, bool) {
	raw, found, err := s.kv.Get(ctx, profileKey(userId))
	if err != nil || !found {
		return nil, false
	}
	var profile entity.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

func (s *tokenService) DropSession(ctx context.Context, userId uuid.UUID, provider string) error {
	return s.kv.Delete(ctx, sessionKey(userId, provider))
}

func (s *tokenService) Clear(ctx context.Context, userId uuid.UUID) error {
	return s.kv.DeletePrefix(ctx, userPrefix(userId))
}
