package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/model"
	"localmart/internal/repository"
)

func TestError_Classification(t *testing.T) {
	err := conflict("username %s taken", "bob")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "username bob taken", err.Error())

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ErrConflict, se.Kind)
}

func TestLookup(t *testing.T) {
	repos, f := newFakes()
	ctx := context.Background()

	_, err := lookup(ctx, repos.Users, "not-hex", "user")
	assert.ErrorIs(t, err, ErrNotFound)
	f.users.AssertNotCalled(t, "FindByID")

	missing := model.NewID()
	f.users.On("FindByID", ctxArg, missing).Return(nil, repository.ErrNotFound)
	_, err = lookup(ctx, repos.Users, missing, "user")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "user not found", err.Error())

	broken := model.NewID()
	f.users.On("FindByID", ctxArg, broken).Return(nil, errors.New("socket closed"))
	_, err = lookup(ctx, repos.Users, broken, "user")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	found := model.NewID()
	f.users.On("FindByID", ctxArg, found).Return(&model.User{ID: found}, nil)
	u, err := lookup(ctx, repos.Users, found, "user")
	require.NoError(t, err)
	assert.Equal(t, found, u.ID)
}

func TestPage_Query(t *testing.T) {
	pq := Page{}.query("created_at", false)
	assert.Equal(t, repository.PageQuery{Limit: 20, Offset: 0, SortBy: "created_at"}, pq)

	pq = Page{Limit: 500, Offset: -3}.query("name", true)
	assert.Equal(t, 100, pq.Limit)
	assert.Equal(t, 0, pq.Offset)
	assert.True(t, pq.Asc)
}

func TestKeyword_EscapesRegex(t *testing.T) {
	f := keyword("  rau (má) ")
	assert.Equal(t, `rau \(má\)`, f["$regex"])
	assert.Equal(t, "i", f["$options"])
}

func TestMoney(t *testing.T) {
	assert.Equal(t, int64(37500), lineTotal(25000, 1.5))
	assert.Equal(t, int64(3333), lineTotal(10000, 0.33333))
	assert.Equal(t, int64(60), sumAmounts(10, 20, 30))
	assert.True(t, withinPercent(50, 100, 50))
	assert.False(t, withinPercent(51, 100, 50))
}
