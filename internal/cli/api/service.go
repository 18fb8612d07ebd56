package api

import (
	"context"
	"errors"
	"net/url"

	"github.com/yndnr/stockvoice-go/internal/cli/session"
)

var (
	// ErrNotAuthenticated is returned before dispatch when no session exists.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrNoConfig means the backend holds no integration configuration for the user.
	ErrNoConfig = errors.New("no integration configuration registered")

	// ErrInvalid wraps every input validation failure.
	ErrInvalid = errors.New("invalid input")
)

// Gateway is the subset of the gateway client the service needs.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values, target any) error
	Post(ctx context.Context, path string, body, target any) error
	Put(ctx context.Context, path string, body, target any) error
}

// Service exposes typed backend operations.
type Service struct {
	gw    Gateway
	store session.Store
}

// New creates a service. store must be the one the gateway reads from.
func New(gw Gateway, store session.Store) *Service {
	return &Service{gw: gw, store: store}
}

// State returns the current authentication state.
func (s *Service) State() session.State {
	return session.StateOf(s.store)
}

// requireSession refuses to dispatch when the session is absent.
func (s *Service) requireSession() (session.Session, error) {
	sess, ok := s.store.Read()
	if !ok {
		return session.Session{}, ErrNotAuthenticated
	}
	return sess, nil
}

// messageResponse is the {message} body most endpoints answer with.
type messageResponse struct {
	Message string `json:"message"`
}
