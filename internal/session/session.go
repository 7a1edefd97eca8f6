// Package session holds the signed-in token, user and theme preference. A
// Session is created once and passed explicitly to every component; only the
// account flows and the theme toggle write to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/logger"
)

// State is the persisted form of a session.
type State struct {
	Token    string       `json:"token,omitempty"`
	User     *domain.User `json:"user,omitempty"`
	DarkMode bool         `json:"darkMode"`
}

// Store persists session state. Load returns the zero State when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
}

// Session is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	state  State
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New returns an empty session backed by store. A nil store keeps the state
// in memory only.
func New(store Store, log *slog.Logger) *Session {
	if log == nil {
		log = logger.Discard()
	}
	return &Session{store: store, logger: log, now: time.Now}
}

// Open restores the session saved in store.
func Open(ctx context.Context, store Store, log *slog.Logger) (*Session, error) {
	s := New(store, log)
	if store == nil {
		return s, nil
	}
	st, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	s.state = st
	return s, nil
}

// Token returns the bearer token, or "" when there is none or it has expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.validLocked() {
		return ""
	}
	return s.state.Token
}

// User returns the signed-in user.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil || !s.validLocked() {
		return domain.User{}, false
	}
	return *s.state.User, true
}

// Authenticated reports whether a usable token is present. Tokens that parse
// as JWTs are checked against their exp claim; opaque tokens are trusted
// until the server rejects them.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validLocked()
}

func (s *Session) validLocked() bool {
	if s.state.Token == "" {
		return false
	}
	return !tokenExpired(s.state.Token, s.now())
}

func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// DarkMode returns the theme preference.
func (s *Session) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DarkMode
}

// SignIn stores the token and user returned by login or signup.
func (s *Session) SignIn(ctx context.Context, token string, user domain.User) error {
	if token == "" {
		return errors.New("sign in: empty token")
	}
	return s.update(ctx, func(st *State) {
		st.Token = token
		u := user
		st.User = &u
	})
}

// SignOut forgets the token and user. The theme preference is kept.
func (s *Session) SignOut(ctx context.Context) error {
	return s.update(ctx, func(st *State) {
		st.Token = ""
		st.User = nil
	})
}

// UpdateUserName changes the stored user's display name after a profile save.
func (s *Session) UpdateUserName(ctx context.Context, name string) error {
	return s.update(ctx, func(st *State) {
		if st.User != nil {
			st.User.Name = name
		}
	})
}

// SetDarkMode stores the theme preference.
func (s *Session) SetDarkMode(ctx context.Context, on bool) error {
	return s.update(ctx, func(st *State) {
		st.DarkMode = on
	})
}

func (s *Session) update(ctx context.Context, fn func(st *State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	if next.User != nil {
		u := *next.User
		next.User = &u
	}
	fn(&next)

	if s.store != nil {
		if err := s.store.Save(ctx, next); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist session", slog.String("error", err.Error()))
			return fmt.Errorf("persist session: %w", err)
		}
	}
	s.state = next
	return nil
}
