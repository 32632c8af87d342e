package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sethvargo/go-retry"

	"github.com/offnote/offnote/pkg/logging"
	"github.com/offnote/offnote/pkg/models"
)

// TokenSource supplies the bearer token for remote calls. Implementations
// may refresh behind the scenes; the gateway only asks per request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed, already-issued token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// HTTPConfig configures the HTTP gateway.
type HTTPConfig struct {
	// BaseURL is the server root, e.g. "https://sync.example.com". Empty
	// means not configured and the gateway reports unavailable.
	BaseURL string

	// Tokens supplies the bearer token. Nil means not configured.
	Tokens TokenSource

	// Timeout bounds each HTTP request. Defaults to 10s.
	Timeout time.Duration

	// MaxRetries bounds retries of transient failures per call. Defaults
	// to 3.
	MaxRetries uint64
}

// HTTPGateway talks to the reference sync server over REST and, for the
// change feed, WebSocket. Transient failures (network errors, 5xx) are
// retried with exponential backoff; auth and payload errors are not.
type HTTPGateway struct {
	cfg    HTTPConfig
	client *http.Client
	log    logging.Logger
}

var _ Gateway = (*HTTPGateway)(nil)

func NewHTTPGateway(cfg HTTPConfig, log logging.Logger) *HTTPGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With("component", "remote"),
	}
}

func (g *HTTPGateway) Available() bool {
	return g.cfg.BaseURL != "" && g.cfg.Tokens != nil
}

func (g *HTTPGateway) FetchNotesSince(ctx context.Context, userID string, since *time.Time) ([]models.Note, error) {
	endpoint := g.cfg.BaseURL + "/api/v1/notes"
	if since != nil {
		endpoint += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	}

	var records []noteRecord
	if err := g.do(ctx, http.MethodGet, endpoint, nil, &records); err != nil {
		return nil, err
	}

	out := make([]models.Note, 0, len(records))
	for _, r := range records {
		n, err := decodeNote(r)
		if err != nil {
			// One bad record must not poison the whole fetch.
			g.log.Warn(ctx, "skipping malformed note record", "id", r.ID, "error", err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (g *HTTPGateway) UpsertNote(ctx context.Context, userID string, n models.Note) (*models.Note, error) {
	endpoint := g.cfg.BaseURL + "/api/v1/notes/" + url.PathEscape(n.ID)

	var got noteRecord
	if err := g.do(ctx, http.MethodPut, endpoint, encodeNote(userID, n), &got); err != nil {
		return nil, err
	}

	stored, err := decodeNote(got)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (g *HTTPGateway) SoftDeleteNote(ctx context.Context, noteID, userID string) error {
	endpoint := g.cfg.BaseURL + "/api/v1/notes/" + url.PathEscape(noteID)
	return g.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// do performs one authenticated request, retrying transient failures, and
// decodes a JSON response into out when out is non-nil.
func (g *HTTPGateway) do(ctx context.Context, method, endpoint string, in, out any) error {
	if !g.Available() {
		return ErrNotConfigured
	}

	token, err := g.token(ctx)
	if err != nil {
		return err
	}

	var payload []byte
	if in != nil {
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(g.cfg.MaxRetries, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: server rejected token", ErrAuthExpired)
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: server returned %s", ErrUnavailable, resp.Status))
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: server returned %s", ErrMalformedPayload, resp.Status)
		default:
			return fmt.Errorf("unexpected status %s from %s %s", resp.Status, method, endpoint)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return nil
	})
}

// token fetches the current bearer token and rejects it locally when its
// expiry claim has already passed, saving a doomed round trip.
func (g *HTTPGateway) token(ctx context.Context) (string, error) {
	token, err := g.cfg.Tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain token: %w", err)
	}
	if token == "" {
		return "", ErrNotConfigured
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.Before(time.Now()) {
			return "", fmt.Errorf("%w: token expired at %s", ErrAuthExpired, exp.Format(time.RFC3339))
		}
	}
	return token, nil
}
