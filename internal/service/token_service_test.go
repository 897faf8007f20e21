package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/pkg/logger"
	"github.com/kinhai-collab/Mira-sub001/internal/store"
)

func testLogger(t *testing.T) logger.ILogger {
	t.Helper()
	return logger.NewZapLogger(filepath.Join(t.TempDir(), "test.log"), false)
}

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestTokenService(t *testing.T, kv store.KV, refreshURL string) *tokenService {
	t.Helper()
	urls := map[string]string{}
	if refreshURL != "" {
		urls[UpstreamProvider] = refreshURL
	}
	svc := NewTokenService(kv, urls, 5*time.Second, nil, testLogger(t))
	return svc.(*tokenService)
}

func TestIsExpired(t *testing.T) {
	svc := newTestTokenService(t, store.NewMemoryStore(), "")

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{
			name:  "garbage token fails closed",
			token: "not-a-jwt",
			want:  true,
		},
		{
			name:  "empty token fails closed",
			token: "",
			want:  true,
		},
		{
			name:  "no exp claim is valid indefinitely",
			token: signTestToken(t, jwt.MapClaims{"sub": "user"}),
			want:  false,
		},
		{
			name:  "exp well in the future",
			token: signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(2 * time.Hour).Unix()}),
			want:  false,
		},
		{
			name:  "exp inside the skew window counts as expired",
			token: signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(30 * time.Second).Unix()}),
			want:  true,
		},
		{
			name:  "exp in the past",
			token: signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.IsExpired(tt.token))
		})
	}
}

func TestIsExpired_SkewBoundary(t *testing.T) {
	svc := newTestTokenService(t, store.NewMemoryStore(), "")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return base }

	// 90s out survives the 60s skew, 45s out does not.
	assert.False(t, svc.IsExpired(signTestToken(t, jwt.MapClaims{"exp": base.Add(90 * time.Second).Unix()})))
	assert.True(t, svc.IsExpired(signTestToken(t, jwt.MapClaims{"exp": base.Add(45 * time.Second).Unix()})))
}

func TestGetStoredToken(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	svc := newTestTokenService(t, kv, "")
	userId := uuid.New()

	assert.Empty(t, svc.GetStoredToken(ctx, userId, UpstreamProvider))

	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{AccessToken: "abc"}))
	assert.Equal(t, "abc", svc.GetStoredToken(ctx, userId, UpstreamProvider))
}

func TestRefresh_Success(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh"}`))
	}))
	defer upstream.Close()

	kv := store.NewMemoryStore()
	svc := newTestTokenService(t, kv, upstream.URL)

	oldRefresh := "old-refresh"
	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{
		AccessToken:  "old-access",
		RefreshToken: &oldRefresh,
	}))

	got := svc.Refresh(ctx, userId, UpstreamProvider)
	assert.Equal(t, "new-access", got)

	// Both tokens rotated in the store.
	assert.Equal(t, "new-access", svc.GetStoredToken(ctx, userId, UpstreamProvider))
	session := svc.loadSession(ctx, userId, UpstreamProvider)
	require.NotNil(t, session)
	require.NotNil(t, session.RefreshToken)
	assert.Equal(t, "new-refresh", *session.RefreshToken)
}

func TestRefresh_KeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"new-access"}`))
	}))
	defer upstream.Close()

	kv := store.NewMemoryStore()
	svc := newTestTokenService(t, kv, upstream.URL)

	oldRefresh := "old-refresh"
	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{
		AccessToken:  "old-access",
		RefreshToken: &oldRefresh,
	}))

	assert.Equal(t, "new-access", svc.Refresh(ctx, userId, UpstreamProvider))

	session := svc.loadSession(ctx, userId, UpstreamProvider)
	require.NotNil(t, session)
	require.NotNil(t, session.RefreshToken)
	assert.Equal(t, "old-refresh", *session.RefreshToken)
}

func TestRefresh_FailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	kv := store.NewMemoryStore()
	svc := newTestTokenService(t, kv, upstream.URL)

	oldRefresh := "old-refresh"
	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{
		AccessToken:  "old-access",
		RefreshToken: &oldRefresh,
	}))

	assert.Empty(t, svc.Refresh(ctx, userId, UpstreamProvider))

	// Stored pair survives a rejected refresh so the user can be sent
	// through login without losing the connected account.
	session := svc.loadSession(ctx, userId, UpstreamProvider)
	require.NotNil(t, session)
	assert.Equal(t, "old-access", session.AccessToken)
	require.NotNil(t, session.RefreshToken)
	assert.Equal(t, "old-refresh", *session.RefreshToken)
}

func TestRefresh_NoRefreshToken(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()

	kv := store.NewMemoryStore()
	svc := newTestTokenService(t, kv, "http://unreachable.invalid")

	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{AccessToken: "only-access"}))
	assert.Empty(t, svc.Refresh(ctx, userId, UpstreamProvider))
}

func TestRefresh_UnknownProvider(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()

	kv := store.NewMemoryStore()
	svc := newTestTokenService(t, kv, "")

	refresh := "r"
	require.NoError(t, svc.StoreSession(ctx, userId, "google", entity.Session{
		AccessToken:  "a",
		RefreshToken: &refresh,
	}))
	assert.Empty(t, svc.Refresh(ctx, userId, "google"))
}

func TestGetValidToken(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()

	refreshCalls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"refreshed"}`))
	}))
	defer upstream.Close()

	kv := store.NewMemoryStore()
	svc := newTestTokenService(t, kv, upstream.URL)

	// No session at all: empty, no refresh attempted.
	assert.Empty(t, svc.GetValidToken(ctx, userId, UpstreamProvider))
	assert.Zero(t, refreshCalls)

	// Fresh token passes straight through.
	fresh := signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{AccessToken: fresh}))
	assert.Equal(t, fresh, svc.GetValidToken(ctx, userId, UpstreamProvider))
	assert.Zero(t, refreshCalls)

	// Expired token triggers a refresh.
	refresh := "refresh-me"
	expired := signTestToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{
		AccessToken:  expired,
		RefreshToken: &refresh,
	}))
	assert.Equal(t, "refreshed", svc.GetValidToken(ctx, userId, UpstreamProvider))
	assert.Equal(t, 1, refreshCalls)
}

func TestProfileCache(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	svc := newTestTokenService(t, store.NewMemoryStore(), "")

	_, found := svc.CachedProfile(ctx, userId)
	assert.False(t, found)

	name := "Ada"
	require.NoError(t, svc.CacheProfile(ctx, userId, entity.UserProfile{
		Email:       "ada@example.com",
		DisplayName: &name,
	}))

	profile, found := svc.CachedProfile(ctx, userId)
	require.True(t, found)
	assert.Equal(t, "ada@example.com", profile.Email)
	require.NotNil(t, profile.DisplayName)
	assert.Equal(t, "Ada", *profile.DisplayName)
}

func TestDropSession(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	svc := newTestTokenService(t, store.NewMemoryStore(), "")

	require.NoError(t, svc.StoreSession(ctx, userId, "google", entity.Session{AccessToken: "g"}))
	require.NoError(t, svc.StoreSession(ctx, userId, "microsoft", entity.Session{AccessToken: "m"}))

	require.NoError(t, svc.DropSession(ctx, userId, "google"))

	assert.Empty(t, svc.GetStoredToken(ctx, userId, "google"))
	assert.Equal(t, "m", svc.GetStoredToken(ctx, userId, "microsoft"))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	userId := uuid.New()
	other := uuid.New()
	svc := newTestTokenService(t, store.NewMemoryStore(), "")

	require.NoError(t, svc.StoreSession(ctx, userId, UpstreamProvider, entity.Session{AccessToken: "a"}))
	require.NoError(t, svc.StoreSession(ctx, userId, "google", entity.Session{AccessToken: "g"}))
	require.NoError(t, svc.CacheProfile(ctx, userId, entity.UserProfile{Email: "x@example.com"}))
	require.NoError(t, svc.StoreSession(ctx, other, UpstreamProvider, entity.Session{AccessToken: "keep"}))

	require.NoError(t, svc.Clear(ctx, userId))

	assert.Empty(t, svc.GetStoredToken(ctx, userId, UpstreamProvider))
	assert.Empty(t, svc.GetStoredToken(ctx, userId, "google"))
	_, found := svc.CachedProfile(ctx, userId)
	assert.False(t, found)

	// Other users are untouched.
	assert.Equal(t, "keep", svc.GetStoredToken(ctx, other, UpstreamProvider))
}
