package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
	"github.com/Shivanand-hulikatti/eventix/internal/repository"
	"github.com/Shivanand-hulikatti/eventix/internal/token"
)

// AuthService handles signup, sign-in and the identity record.
type AuthService struct {
	accounts AccountStore
	profiles ProfileStore
	tokens   Tokens
	log      logrus.FieldLogger
}

// NewAuthService constructs an AuthService with its dependencies.
func NewAuthService(accounts AccountStore, profiles ProfileStore, tokens Tokens, log logrus.FieldLogger) *AuthService {
	return &AuthService{accounts: accounts, profiles: profiles, tokens: tokens, log: log}
}

// SignUp creates an identity and its profile. It does not sign the user in.
func (s *AuthService) SignUp(ctx context.Context, req model.SignUpRequest) (*model.Identity, error) {
	email := model.NormalizeEmail(req.Email)
	if err := model.ValidateCredentials(email, req.Password); err != nil {
		return nil, err
	}
	if !req.Data.UserType.Valid() {
		return nil, fmt.Errorf("%w: user_type must be %q or %q", model.ErrInvalidInput, model.RoleAttendee, model.RoleOrganizer)
	}
	meta := model.UserMetadata{
		FullName: strings.TrimSpace(req.Data.FullName),
		UserType: req.Data.UserType,
	}
	if meta.FullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", model.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	ident, err := s.accounts.Create(ctx, email, string(hash), meta)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": ident.ID, "user_type": meta.UserType}).Info("account created")
	return ident, nil
}

// SignIn verifies the password and issues a token carrying the profile role.
func (s *AuthService) SignIn(ctx context.Context, req model.SignInRequest) (*model.TokenResponse, error) {
	email := model.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	ident, hash, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.profiles.GetByID(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	raw, expires, err := s.tokens.Issue(*ident, profile.UserType)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.TokenResponse{AccessToken: raw, ExpiresAt: expires, User: *ident}, nil
}

// SignOut revokes the caller's token.
func (s *AuthService) SignOut(ctx context.Context, claims *token.Claims) error {
	return s.tokens.Revoke(ctx, claims)
}

// CurrentUser returns the caller's identity.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.Identity, error) {
	return s.accounts.GetByID(ctx, userID)
}

// UpdateUser rewrites the full_name in the caller's identity metadata.
func (s *AuthService) UpdateUser(ctx context.Context, userID string, req model.UpdateUserRequest) (*model.Identity, error) {
	name := strings.TrimSpace(req.Data.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: full_name cannot be empty", model.ErrInvalidInput)
	}
	if err := s.accounts.UpdateFullName(ctx, userID, name); err != nil {
		return nil, err
	}
	return s.accounts.GetByID(ctx, userID)
}
