// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/podsub/internal/model"
)

// UserRepository is the credential store: user records by stable id and username.
type UserRepository interface {
	// Create inserts a new user and fills its ID and CreatedAt.
	Create(ctx context.Context, u *model.User) error
	// GetByStableID loads a user by its stable id.
	GetByStableID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// SetRoles replaces the role set of a user.
	SetRoles(ctx context.Context, id uuid.UUID, roles []string) error
}
