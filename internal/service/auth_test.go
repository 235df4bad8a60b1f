package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"localmart/internal/auth"
	"localmart/internal/cache"
	"localmart/internal/model"
	"localmart/internal/repository"
)

type stubTokens struct{}

func (stubTokens) Issue(userID, role string) (string, time.Time, error) {
	return "tok-" + userID + "-" + role, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func newAuth(t *testing.T) (AuthService, *fakes, *inbox, cache.Store) {
	t.Helper()
	repos, f := newFakes()
	d, in, _ := testDeps(repos)
	d.Tokens = stubTokens{}
	d.Cache = cache.NewMemory()
	return NewAuthService(d), f, in, d.Cache
}

func TestAuth_Register(t *testing.T) {
	svc, f, in, store := newAuth(t)
	ctx := context.Background()

	f.users.On("Count", ctxArg, repository.Filter{"username": "alice"}).Return(int64(0), nil)
	f.users.On("Count", ctxArg, repository.Filter{"email": "alice@example.com"}).Return(int64(0), nil)
	f.users.On("Create", ctxArg, mock.AnythingOfType("*model.User")).Return(nil)

	u, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret1",
		FullName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleBuyer, u.Role)
	assert.Equal(t, model.UserActive, u.Status)
	assert.NoError(t, auth.CheckPassword(u.PasswordHash, "secret1"))

	msgs := in.to(u.ID)
	require.Len(t, msgs, 1)
	token := msgs[0].Message[len(msgs[0].Message)-48:]
	got, err := store.Get(ctx, cache.Key(cache.KeyEmailVerify, token))
	require.NoError(t, err)
	assert.Equal(t, u.ID, got)
}

func TestAuth_Register_Conflict(t *testing.T) {
	svc, f, _, _ := newAuth(t)
	f.users.On("Count", ctxArg, repository.Filter{"username": "alice"}).Return(int64(1), nil)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@b.c", Password: "secret1"})
	assert.ErrorIs(t, err, ErrConflict)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuth_Register_LosesRaceOnUniqueIndex(t *testing.T) {
	svc, f, in, _ := newAuth(t)
	f.users.On("Count", ctxArg, mock.Anything).Return(int64(0), nil)
	f.users.On("Create", ctxArg, mock.AnythingOfType("*model.User")).Return(duplicateKey())

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "a@b.c", Password: "secret1"})

	assert.ErrorIs(t, err, ErrConflict)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "username or email already registered", se.Msg)
	assert.Empty(t, in.msgs, "no verification mail for a rejected registration")
}

func TestAuth_Login(t *testing.T) {
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	active := &model.User{ID: model.NewID(), Username: "alice", PasswordHash: hash, Role: model.RoleSeller, Status: model.UserActive}
	disabled := &model.User{ID: model.NewID(), Email: "bob@example.com", PasswordHash: hash, Status: model.UserDisabled}

	svc, f, _, _ := newAuth(t)
	f.users.On("FindOne", ctxArg, repository.Filter{"username": "alice"}).Return(active, nil)
	f.users.On("FindOne", ctxArg, repository.Filter{"email": "bob@example.com"}).Return(disabled, nil)
	f.users.On("FindOne", ctxArg, repository.Filter{"username": "ghost"}).Return(nil, repository.ErrNotFound)
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginInput{Login: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-"+active.ID+"-Seller", res.Token)

	_, err = svc.Login(ctx, LoginInput{Login: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Login: "ghost", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Login: "Bob@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuth_VerifyEmail_TokenUsedOnce(t *testing.T) {
	svc, f, _, store := newAuth(t)
	ctx := context.Background()
	id := model.NewID()
	require.NoError(t, store.Set(ctx, cache.Key(cache.KeyEmailVerify, "abc"), id, time.Hour))
	f.users.On("Update", ctxArg, id, mock.Anything).Return(nil).Once()

	require.NoError(t, svc.VerifyEmail(ctx, "abc"))
	assert.ErrorIs(t, svc.VerifyEmail(ctx, "abc"), ErrInvalidInput)
	f.users.AssertExpectations(t)
}

func TestAuth_ForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	svc, f, in, _ := newAuth(t)
	f.users.On("FindOne", ctxArg, repository.Filter{"email": "nobody@example.com"}).Return(nil, repository.ErrNotFound)

	assert.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, in.msgs)
}
