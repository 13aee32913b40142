package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/casetrack/internal"
)

type ServiceAPI interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
}

type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	p.Permissions = p.PermissionBitmask.Names()
	return p, nil
}
