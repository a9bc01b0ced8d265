package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/repository"
)

var knownRoles = []string{model.RoleAdmin, model.RoleUser}

// UserService exposes user lookups and role administration.
type UserService struct {
	users repository.UserRepository
	log   *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{users: users, log: log}
}

// Get returns the user with the given stable id.
func (s *UserService) Get(ctx context.Context, stableID uuid.UUID) (*model.User, error) {
	return s.users.GetByStableID(ctx, stableID)
}

// SetRoles replaces the user's roles. The set must be non-empty and contain only known roles.
func (s *UserService) SetRoles(ctx context.Context, stableID uuid.UUID, roles []string) ([]string, error) {
	norm := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if !slices.Contains(knownRoles, r) {
			return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, r)
		}
		if !slices.Contains(norm, r) {
			norm = append(norm, r)
		}
	}
	if len(norm) == 0 {
		return nil, fmt.Errorf("%w: roles must not be empty", errs.ErrValidation)
	}
	slices.Sort(norm)

	if err := s.users.SetRoles(ctx, stableID, norm); err != nil {
		return nil, err
	}
	s.log.Info("roles updated", zap.String("stable_id", stableID.String()), zap.Strings("roles", norm))
	return norm, nil
}
