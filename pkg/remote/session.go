package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpirySkew is how close to expiry an access token may get before the
// session refreshes it proactively.
const tokenExpirySkew = 30 * time.Second

// Session holds the authenticated state against the sync server: it signs the
// user in, keeps the access/refresh token pair, and implements TokenSource so
// the gateway always gets a live access token. Refresh happens lazily from
// Token when the access token is expired or about to expire.
type Session struct {
	baseURL string
	client  *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

var _ TokenSource = (*Session)(nil)

func NewSession(baseURL string, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Session{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account and leaves the session signed in.
func (s *Session) Register(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "/api/v1/auth/register", credentialsPayload{Email: email, Password: password})
}

// Login signs the session in with existing credentials.
func (s *Session) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "/api/v1/auth/login", credentialsPayload{Email: email, Password: password})
}

// Token returns the current access token, refreshing it first when it is
// within tokenExpirySkew of expiry. Returns ErrNotConfigured when the session
// was never signed in and ErrAuthExpired when the refresh token is rejected.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return "", ErrNotConfigured
	}

	if s.accessToken != "" && time.Until(s.expiresAt) > tokenExpirySkew {
		return s.accessToken, nil
	}

	pair, err := s.postTokens(ctx, "/api/v1/auth/refresh", refreshPayload{RefreshToken: s.refreshToken})
	if err != nil {
		return "", err
	}
	s.store(pair)

	return s.accessToken, nil
}

// SignOut drops the token pair. Subsequent Token calls report ErrNotConfigured
// until the session signs in again.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
}

func (s *Session) authenticate(ctx context.Context, path string, payload any) error {
	pair, err := s.postTokens(ctx, path, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(pair)

	return nil
}

func (s *Session) postTokens(ctx context.Context, path string, payload any) (*tokenPairResponse, error) {
	if s.baseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: server rejected credentials", ErrAuthExpired)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: server returned %s", ErrUnavailable, resp.Status)
	default:
		return nil, fmt.Errorf("authentication failed: server returned %s", resp.Status)
	}

	var pair tokenPairResponse
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, fmt.Errorf("%w: incomplete token pair", ErrMalformedPayload)
	}

	return &pair, nil
}

// store records a fresh pair; callers hold s.mu.
func (s *Session) store(pair *tokenPairResponse) {
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expiresAt = time.Time{}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.expiresAt = exp.Time
		}
	}
}
