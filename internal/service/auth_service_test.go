package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinhai-collab/Mira-sub001/internal/dto"
	"github.com/kinhai-collab/Mira-sub001/internal/entity"
	"github.com/kinhai-collab/Mira-sub001/internal/store"
)

// fakeUserRepo is an in-memory IUserRepository for service tests.
type fakeUserRepo struct {
	users    map[uuid.UUID]*entity.User
	accounts map[uuid.UUID][]entity.ConnectedAccount
	tokens   map[string]*entity.UserRefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[uuid.UUID]*entity.User),
		accounts: make(map[uuid.UUID][]entity.ConnectedAccount),
		tokens:   make(map[string]*entity.UserRefreshToken),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) FindById(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, fullName string, avatarURL *string) error {
	if user, ok := r.users[id]; ok {
		user.FullName = fullName
		if avatarURL != nil {
			user.AvatarURL = avatarURL
		}
	}
	return nil
}

func (r *fakeUserRepo) UpsertConnectedAccount(_ context.Context, account *entity.ConnectedAccount) error {
	for i, a := range r.accounts[account.UserId] {
		if a.Provider == account.Provider {
			r.accounts[account.UserId][i] = *account
			return nil
		}
	}
	r.accounts[account.UserId] = append(r.accounts[account.UserId], *account)
	return nil
}

func (r *fakeUserRepo) FindConnectedAccounts(_ context.Context, userId uuid.UUID) ([]entity.ConnectedAccount, error) {
	return r.accounts[userId], nil
}

func (r *fakeUserRepo) DeleteConnectedAccount(_ context.Context, userId uuid.UUID, provider string) error {
	kept := r.accounts[userId][:0]
	for _, a := range r.accounts[userId] {
		if a.Provider != provider {
			kept = append(kept, a)
		}
	}
	r.accounts[userId] = kept
	return nil
}

func (r *fakeUserRepo) CreateRefreshToken(_ context.Context, token *entity.UserRefreshToken) error {
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(_ context.Context, tokenHash string) (*entity.UserRefreshToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok || token.Revoked {
		return nil, nil
	}
	return token, nil
}

func (r *fakeUserRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if token, ok := r.tokens[tokenHash]; ok {
		token.Revoked = true
	}
	return nil
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (IAuthService, ITokenService) {
	t.Helper()
	tokenSvc := NewTokenService(store.NewMemoryStore(), nil, 5*time.Second, nil, testLogger(t))
	authSvc := NewAuthService(repo, tokenSvc, AuthSettings{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, nil, testLogger(t))
	return authSvc, tokenSvc
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	reg, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
		FullName: "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.Email)

	// Duplicate registration is rejected.
	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "whatever",
		FullName: "Someone Else",
	})
	assert.Error(t, err)

	res, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Empty(t, res.RefreshToken, "no refresh token without remember-me")
	assert.Equal(t, "Ada Lovelace", res.User.FullName)

	// The access token carries the user id claim the middleware expects.
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, reg.Id.String(), claims["user_id"])
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
		FullName: "Ada Lovelace",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	}, "", "")
	assert.EqualError(t, err, "invalid credentials")

	_, err = svc.Login(ctx, &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "x",
	}, "", "")
	assert.EqualError(t, err, "invalid credentials")
}

func TestRememberMeIssuesRefreshToken(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
		FullName: "Ada Lovelace",
	})
	require.NoError(t, err)

	res, err := svc.Login(ctx, &dto.LoginRequest{
		Email:      "ada@example.com",
		Password:   "correct-horse",
		RememberMe: true,
	}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, res.RefreshToken)

	// Only the hash hits storage.
	_, rawStored := repo.tokens[res.RefreshToken]
	assert.False(t, rawStored)
	_, hashStored := repo.tokens[hashToken(res.RefreshToken)]
	assert.True(t, hashStored)

	refreshed, err := svc.RefreshAccessToken(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, res.User.Id, refreshed.User.Id)
}

func TestRefreshAccessToken_Invalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.RefreshAccessToken(ctx, "never-issued")
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc, tokenSvc := newTestAuthService(t, repo)

	reg, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
		FullName: "Ada Lovelace",
	})
	require.NoError(t, err)

	res, err := svc.Login(ctx, &dto.LoginRequest{
		Email:      "ada@example.com",
		Password:   "correct-horse",
		RememberMe: true,
	}, "", "")
	require.NoError(t, err)

	// Seed a provider session so Logout has something to clear.
	require.NoError(t, tokenSvc.StoreSession(ctx, reg.Id, UpstreamProvider, entity.Session{AccessToken: "upstream"}))

	require.NoError(t, svc.Logout(ctx, reg.Id, res.RefreshToken))

	// Refresh token revoked, session store emptied.
	_, err = svc.RefreshAccessToken(ctx, res.RefreshToken)
	assert.Error(t, err)
	assert.Empty(t, tokenSvc.GetStoredToken(ctx, reg.Id, UpstreamProvider))
}
