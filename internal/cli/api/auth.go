package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/stockvoice-go/internal/cli/session"
)

// MinPasswordLength is enforced before a registration is sent.
const MinPasswordLength = 6

// Credentials is the body of /auth/register and /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput adds the confirmation only checked locally.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate checks the registration form.
func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if in.Password != in.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrInvalid)
	}
	if len(in.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalid, MinPasswordLength)
	}
	return nil
}

// authResponse is {message, token, user: {id, email}}.
type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r authResponse) session() (session.Session, bool) {
	if r.Token == "" || r.User == nil {
		return session.Session{}, false
	}
	s := session.Session{Token: r.Token, UserID: r.User.ID, UserEmail: r.User.Email}
	return s, s.Complete()
}

// AuthResult reports the outcome of a register or login call.
type AuthResult struct {
	Message     string
	Session     session.Session
	Established bool
}

// Register creates an account. When the answer carries a token and user the
// session is established.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := in.Validate(); err != nil {
		return AuthResult{}, err
	}

	var resp authResponse
	creds := Credentials{Email: strings.TrimSpace(in.Email), Password: in.Password}
	if err := s.gw.Post(ctx, "/auth/register", creds, &resp); err != nil {
		return AuthResult{}, fmt.Errorf("register: %w", err)
	}

	return s.establish(resp)
}

// Login authenticates and establishes the session.
func (s *Service) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return AuthResult{}, fmt.Errorf("%w: email and password are required", ErrInvalid)
	}

	var resp authResponse
	if err := s.gw.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return AuthResult{}, fmt.Errorf("login: %w", err)
	}

	res, err := s.establish(resp)
	if err != nil {
		return res, err
	}
	if !res.Established {
		return res, errors.New("login: response carried no token")
	}
	return res, nil
}

func (s *Service) establish(resp authResponse) (AuthResult, error) {
	res := AuthResult{Message: resp.Message}

	sess, ok := resp.session()
	if !ok {
		return res, nil
	}
	if err := s.store.Establish(sess); err != nil {
		return res, fmt.Errorf("store session: %w", err)
	}

	res.Session = sess
	res.Established = true
	return res, nil
}

// Logout clears the session. Logging out while anonymous is a no-op.
func (s *Service) Logout() error {
	return s.store.Clear()
}

// Identity describes the current user for display.
type Identity struct {
	State     session.State
	Session   session.Session
	ExpiresAt time.Time // zero when the token carries no readable exp claim
}

// Expired reports whether the token's exp claim is in the past.
func (id Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}

// Whoami returns the current identity without contacting the backend.
func (s *Service) Whoami() Identity {
	sess, ok := s.store.Read()
	if !ok {
		return Identity{State: session.Anonymous}
	}

	id := Identity{State: session.Authenticated, Session: sess}
	if exp, ok := TokenExpiry(sess.Token); ok {
		id.ExpiresAt = exp
	}
	return id
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The token stays opaque to the console; this is for display only.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
