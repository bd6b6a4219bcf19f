package service

import (
	"context"
	"fmt"

	"github.com/digkill/DigiStoreBot/internal/models"
)

type UserStore interface {
	Ensure(ctx context.Context, id int64, username, fullName string) (*models.User, bool, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Ensure registers the user on first contact and refreshes the handle and
// name afterwards. The boolean reports a new registration.
func (s *UserService) Ensure(ctx context.Context, id int64, username, fullName string) (*models.User, bool, error) {
	user, created, err := s.users.Ensure(ctx, id, username, fullName)
	if err != nil {
		return nil, false, fmt.Errorf("ensure user: %w", err)
	}
	return user, created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) ListIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}
