package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"localmart/internal/repository"
)

// MockRepository is a testify mock for repository.Repository of any record type.
type MockRepository[T any] struct {
	mock.Mock
}

var _ repository.Repository[struct{}] = (*MockRepository[struct{}])(nil)

func (m *MockRepository[T]) Create(ctx context.Context, doc *T) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) FindOne(ctx context.Context, f repository.Filter) (*T, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) FindMany(ctx context.Context, f repository.Filter) ([]T, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) List(ctx context.Context, f repository.Filter, pq repository.PageQuery) (*repository.PageResult[T], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[T]), args.Error(1)
}

func (m *MockRepository[T]) Count(ctx context.Context, f repository.Filter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository[T]) Replace(ctx context.Context, id string, doc *T) error {
	args := m.Called(ctx, id, doc)
	return args.Error(0)
}

func (m *MockRepository[T]) Update(ctx context.Context, id string, fields repository.Filter) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockRepository[T]) UpdateMany(ctx context.Context, f repository.Filter, fields repository.Filter) (int64, error) {
	args := m.Called(ctx, f, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
