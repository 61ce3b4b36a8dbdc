package mocks

import (
	"context"

	"easycart/internal/cart"
	"github.com/stretchr/testify/mock"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, sessionID string) (*cart.View, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) Add(ctx context.Context, sessionID, pk, quantity string, meta map[string]string) (*cart.View, error) {
	args := m.Called(ctx, sessionID, pk, quantity, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) ChangeQuantity(ctx context.Context, sessionID, pk, quantity string) (*cart.View, error) {
	args := m.Called(ctx, sessionID, pk, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, sessionID, pk string) (*cart.View, error) {
	args := m.Called(ctx, sessionID, pk)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) Empty(ctx context.Context, sessionID string) (*cart.View, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}
