package application

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"flowerchat/backend/internal/apperr"
	"flowerchat/backend/internal/features/marketplace/domain"
	"flowerchat/backend/internal/features/marketplace/infrastructure"
	"flowerchat/backend/internal/logging"
)

const (
	defaultTokenLifetime = time.Hour
	tokenRefreshMargin   = time.Minute
	tokenRefreshTimeout  = 15 * time.Second
)

// TokenSource yields the bearer token used for catalog browsing.
type TokenSource interface {
	BrowsingToken(ctx context.Context, clientToken string) (string, error)
	// Invalidate forgets token if it is the cached server token, so the
	// next BrowsingToken call fetches a new one.
	Invalidate(token string)
}

// AuthService wraps the upstream auth endpoints.
type AuthService interface {
	TokenSource
	AnonymousToken(ctx context.Context) (*domain.Token, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.Token, error)
}

type authService struct {
	client infrastructure.Client
	now    func() time.Time

	mu      sync.Mutex
	cached  string
	expires time.Time
	group   singleflight.Group
}

// NewAuthService creates a new instance of authService.
func NewAuthService(client infrastructure.Client) AuthService {
	return &authService{client: client, now: time.Now}
}

// AnonymousToken issues a fresh anonymous token for a browser session.
func (s *authService) AnonymousToken(ctx context.Context) (*domain.Token, error) {
	tok, err := s.client.AnonymousToken(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch anonymous token")
	}
	return tok, nil
}

// Login forwards credentials to the upstream API.
func (s *authService) Login(ctx context.Context, creds domain.Credentials) (*domain.Token, error) {
	if creds.Login == "" || creds.Password == "" {
		return nil, apperr.Validation("login and password are required")
	}
	tok, err := s.client.Login(ctx, creds)
	if err != nil {
		if infrastructure.IsUnauthorized(err) {
			return nil, apperr.Unauthorized("invalid login or password")
		}
		return nil, errors.Wrap(err, "failed to log in")
	}
	return tok, nil
}

// BrowsingToken returns clientToken when the caller supplied one, and a
// shared server-side anonymous token otherwise.
func (s *authService) BrowsingToken(ctx context.Context, clientToken string) (string, error) {
	if clientToken != "" {
		return clientToken, nil
	}

	s.mu.Lock()
	if s.cached != "" && s.now().Before(s.expires) {
		tok := s.cached
		s.mu.Unlock()
		return tok, nil
	}
	s.mu.Unlock()

	// Shared by every waiter; detached from the starter's cancellation.
	ch := s.group.DoChan("anonymous", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenRefreshTimeout)
		defer cancel()
		return s.refresh(fctx)
	})
	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "failed to obtain browsing token")
	case res := <-ch:
		if res.Err != nil {
			return "", errors.Wrap(res.Err, "failed to obtain browsing token")
		}
		return res.Val.(string), nil
	}
}

func (s *authService) refresh(ctx context.Context) (string, error) {
	tok, err := s.client.AnonymousToken(ctx)
	if err != nil {
		return "", err
	}
	lifetime := time.Duration(tok.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	if lifetime > tokenRefreshMargin {
		lifetime -= tokenRefreshMargin
	} else {
		lifetime /= 2
	}

	s.mu.Lock()
	s.cached = tok.AccessToken
	s.expires = s.now().Add(lifetime)
	s.mu.Unlock()

	logging.FromContext(ctx).WithField("lifetime", lifetime.String()).Info("refreshed server anonymous token")
	return tok.AccessToken, nil
}

func (s *authService) Invalidate(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != "" && token == s.cached {
		s.cached = ""
		s.expires = time.Time{}
	}
}
