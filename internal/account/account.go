// Package account implements sign-in, sign-up and profile management on top
// of the storefront API and the session.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// MinPasswordLength is the shortest password accepted on signup and on
// password change.
const MinPasswordLength = 6

// API is the subset of the storefront API used by account flows.
type API interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Signup(ctx context.Context, name, email, password string) (*domain.AuthResult, error)
	GetProfile(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error)
	ChangePassword(ctx context.Context, current, next string) error
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type passwordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type profileInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Service runs the account flows. It is the only writer of the session's
// token and user.
type Service struct {
	api     API
	session *session.Session
	logger  *slog.Logger
}

// NewService creates an account service.
func NewService(api API, sess *session.Session, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{api: api, session: sess, logger: log}
}

// Login authenticates and stores the returned token and user.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	in := loginInput{Email: strings.TrimSpace(email), Password: password}
	if err := check(in); err != nil {
		return domain.User{}, err
	}

	res, err := s.api.Login(ctx, in.Email, in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	return s.signIn(ctx, res)
}

// Signup registers a new account and signs it in.
func (s *Service) Signup(ctx context.Context, name, email, password string) (domain.User, error) {
	in := signupInput{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := check(in); err != nil {
		return domain.User{}, err
	}

	res, err := s.api.Signup(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("signup: %w", err)
	}
	return s.signIn(ctx, res)
}

func (s *Service) signIn(ctx context.Context, res *domain.AuthResult) (domain.User, error) {
	if err := s.session.SignIn(ctx, res.Token, res.User); err != nil {
		return domain.User{}, err
	}
	s.logger.InfoContext(logger.WithUserID(ctx, res.User.ID), "signed in",
		slog.String("email", res.User.Email),
	)
	return res.User, nil
}

// Logout clears the session token and user.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.session.SignOut(ctx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "signed out")
	return nil
}

// Profile fetches the signed-in user's profile.
func (s *Service) Profile(ctx context.Context) (*domain.Profile, error) {
	p, err := s.api.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpdateProfile saves p and, on success, updates the session user's name.
func (s *Service) UpdateProfile(ctx context.Context, p domain.Profile) (*domain.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if err := check(profileInput{Name: p.Name, Email: p.Email}); err != nil {
		return nil, err
	}

	saved, err := s.api.UpdateProfile(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	name := saved.Name
	if name == "" {
		name = p.Name
	}
	if err := s.session.UpdateUserName(ctx, name); err != nil {
		return nil, err
	}
	return saved, nil
}

// ChangePassword checks that next and confirm match and are long enough
// before asking the API to change the password.
func (s *Service) ChangePassword(ctx context.Context, current, next, confirm string) error {
	in := passwordInput{CurrentPassword: current, NewPassword: next, ConfirmPassword: confirm}
	if err := check(in); err != nil {
		return err
	}
	if err := s.api.ChangePassword(ctx, current, next); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.logger.InfoContext(ctx, "password changed")
	return nil
}

func check(in any) error {
	err := validator.Validate(in)
	if err == nil {
		return nil
	}
	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		return ve.AppError()
	}
	return err
}
