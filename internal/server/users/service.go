package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/offnote/offnote/internal/server/auth"
	"github.com/offnote/offnote/internal/server/config"
	"github.com/offnote/offnote/internal/server/refreshtokens"
	"github.com/offnote/offnote/internal/server/shared"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo                         Repository
	refreshTokenRepo             refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewService(repo Repository, refreshTokenRepo refreshtokens.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		refreshTokenRepo:             refreshTokenRepo,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates an account and signs the user in.
func (s *Service) Register(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") || password == "" {
		return nil, shared.ErrorValidation
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, shared.ErrorAlreadyExists
	} else if !errors.Is(err, shared.ErrorNotFound) {
		return nil, shared.ErrorInternal
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return nil, shared.ErrorInternal
	}

	user := &User{
		Email:        email,
		Salt:         salt,
		PasswordHash: auth.HashPassword(password, salt),
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return s.issueTokens(ctx, user)
}

// Login verifies credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			return nil, shared.ErrorUnauthorized
		}
		return nil, shared.ErrorInternal
	}

	if !auth.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, shared.ErrorUnauthorized
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the old one is invalidated and a new pair
// is issued. Expired or unknown tokens are rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	rt, err := s.refreshTokenRepo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, shared.ErrorNotFound) {
			return nil, shared.ErrorUnauthorized
		}
		return nil, shared.ErrorInternal
	}

	if time.Now().After(rt.ExpiresAt) {
		_ = s.refreshTokenRepo.Delete(ctx, refreshToken)
		return nil, shared.ErrRefreshTokenExpired
	}

	user, err := s.repo.GetByID(ctx, rt.UserID)
	if err != nil {
		return nil, shared.ErrorInternal
	}

	if err := s.refreshTokenRepo.Delete(ctx, refreshToken); err != nil {
		return nil, shared.ErrorInternal
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) issueTokens(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, shared.ErrorInternal
	}

	refreshToken, err := shared.MakeRandHexString(32)
	if err != nil {
		return nil, shared.ErrorInternal
	}

	if err := s.refreshTokenRepo.Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, shared.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
