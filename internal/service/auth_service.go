package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notaflow/notaflow/internal/model"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
	"github.com/notaflow/notaflow/internal/pkg/jwt"
	"github.com/notaflow/notaflow/internal/pkg/password"
	"github.com/notaflow/notaflow/internal/pkg/timeutil"
	"github.com/notaflow/notaflow/internal/repo"
)

type AuthService struct {
	users     *repo.UserRepo
	profiles  *repo.ProfileRepo
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, profiles *repo.ProfileRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, profiles: profiles, jwtSecret: secret, jwtTTL: ttl}
}

func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	if email == "" || len(plainPassword) < 6 {
		return nil, "", appErr.ErrInvalid
	}
	now := timeutil.NowMilli()
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	// A fresh account always has a profile row; the web client expects one.
	profile := &model.Profile{UserID: user.ID, Theme: model.ThemeLight, Mtime: now}
	if err := s.profiles.Create(ctx, profile); err != nil && !appErr.IsConflict(err) {
		logutil.GetLogger(ctx).Warn("create default profile failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
