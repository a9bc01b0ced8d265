// Package service contains the application services behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/podsub/internal/crypto"
	"github.com/and161185/podsub/internal/errs"
	"github.com/and161185/podsub/internal/limiter"
	"github.com/and161185/podsub/internal/model"
	"github.com/and161185/podsub/internal/repository"
	"github.com/and161185/podsub/internal/token"
)

// AuthService registers users and runs the credential lifecycle.
type AuthService struct {
	users   repository.UserRepository
	access  *token.AccessIssuer
	refresh *RefreshTokenManager
	lim     limiter.Limiter
	log     *zap.Logger
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	access *token.AccessIssuer,
	refresh *RefreshTokenManager,
	lim limiter.Limiter,
	log *zap.Logger,
) *AuthService {
	if lim == nil {
		lim = limiter.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, access: access, refresh: refresh, lim: lim, log: log}
}

// Register creates a user with role USER and returns its stable id.
func (s *AuthService) Register(ctx context.Context, username, password string) (uuid.UUID, error) {
	return s.create(ctx, username, password, []string{model.RoleUser})
}

func (s *AuthService) create(ctx context.Context, username, password string, roles []string) (uuid.UUID, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return uuid.Nil, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	sid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return uuid.Nil, err
	}
	u := &model.User{
		StableID: sid,
		Username: username,
		PwdHash:  pkgcrypto.HashPassword(password, salt),
		Salt:     salt,
		Roles:    roles,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	s.log.Info("user registered", zap.String("username", username), zap.String("stable_id", sid.String()))
	return sid, nil
}

// Login authenticates with rate limiting by (username, client) and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password, remoteAddr string) (model.Tokens, model.User, error) {
	// malformed requests must not count against the account's lockout budget
	if strings.TrimSpace(username) == "" || password == "" {
		return model.Tokens{}, model.User{}, fmt.Errorf("%w: username and password are required", errs.ErrValidation)
	}
	client := limiter.HashClient(remoteAddr)

	allowed, _, err := s.lim.Allow(ctx, username, client)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrUserNotFound) {
		return model.Tokens{}, model.User{}, err
	}
	if err != nil || !pkgcrypto.VerifyPassword(password, u.Salt, u.PwdHash) {
		blocked, _, ferr := s.lim.Failure(ctx, username, client)
		if ferr != nil {
			s.log.Warn("record login failure", zap.String("username", username), zap.Error(ferr))
		}
		if blocked {
			s.log.Info("login blocked", zap.String("username", username))
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown user and wrong password look the same to the caller
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	if err := s.lim.Success(ctx, username, client); err != nil {
		s.log.Warn("reset login counters", zap.String("username", username), zap.Error(err))
	}

	access, exp, err := s.access.Issue(*u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	raw, err := s.refresh.Issue(ctx, *u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	s.log.Info("user logged in", zap.String("username", u.Username), zap.String("stable_id", u.StableID.String()))
	return model.Tokens{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresAt:    exp,
		ExpiresIn:    s.access.TTL(),
	}, *u, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself stays the same; its expiry is extended.
func (s *AuthService) Refresh(ctx context.Context, username, raw string) (model.Tokens, error) {
	u, err := s.refresh.ValidateAndRotate(ctx, username, raw)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidRefreshToken) {
			s.log.Info("refresh rejected", zap.String("username", username))
		}
		return model.Tokens{}, err
	}
	access, exp, err := s.access.Issue(*u)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp, ExpiresIn: s.access.TTL()}, nil
}

// Logout revokes the given refresh token.
func (s *AuthService) Logout(ctx context.Context, username, raw string) error {
	deleted, err := s.refresh.Revoke(ctx, username, raw)
	if err != nil {
		return err
	}
	if deleted {
		s.log.Info("refresh token revoked", zap.String("username", username))
	}
	return nil
}

// EnsureAdmin creates an administrator account unless username is taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, nil
	}
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, errs.ErrUserNotFound) {
		return false, err
	}
	if _, err := s.create(ctx, username, password, []string{model.RoleAdmin, model.RoleUser}); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
