package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/offnote/offnote/pkg/logging"
	"github.com/offnote/offnote/pkg/models"
)

// ErrNotConfigured is returned when the client has no base URL.
var ErrNotConfigured = errors.New("ai: service not configured")

// maxSuggestedTags caps how many tags a suggestion may carry.
const maxSuggestedTags = 5

// ChunkFunc receives streamed response text as it arrives. It runs on the
// client's read loop and must not block for long.
type ChunkFunc func(chunk string)

// Config configures the assistant client.
type Config struct {
	// BaseURL is the assistant service root. Empty disables the client.
	BaseURL string

	// Timeout bounds a whole streamed exchange. Defaults to 60s; streamed
	// completions are slow by nature.
	Timeout time.Duration
}

// Client calls the assistant service. Assist and SearchAnswer stream their
// result; SuggestTags is a plain request/response call.
type Client struct {
	cfg    Config
	client *http.Client
	log    logging.Logger
}

func NewClient(cfg Config, log logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With("component", "ai"),
	}
}

// Available reports whether the assistant service is configured.
func (c *Client) Available() bool { return c.cfg.BaseURL != "" }

// Assist runs a text transformation, invoking onChunk for every piece of the
// streamed response, and returns the assembled full text. onChunk may be nil.
func (c *Client) Assist(ctx context.Context, req AssistRequest, onChunk ChunkFunc) (string, error) {
	return c.stream(ctx, "/api/ai/assist", req, onChunk)
}

// SearchAnswer answers a question over the user's notes, streaming like
// Assist does.
func (c *Client) SearchAnswer(ctx context.Context, req SearchRequest, onChunk ChunkFunc) (string, error) {
	return c.stream(ctx, "/api/ai/search", req, onChunk)
}

// SuggestTags proposes tags for a note. The result is normalized to at most
// five lowercase tags; a service failure degrades to no suggestions rather
// than an error surfaced to the editor.
func (c *Client) SuggestTags(ctx context.Context, title, content string) ([]string, error) {
	if !c.Available() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(tagRequest{Title: title, Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tag request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/ai/tags", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn(ctx, "tag suggestion request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn(ctx, "tag suggestion rejected", "status", resp.Status)
		return nil, nil
	}

	var out tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode tag response: %w", err)
	}

	tags := models.NormalizeTagSet(out.Tags)
	if len(tags) > maxSuggestedTags {
		tags = tags[:maxSuggestedTags]
	}
	return tags, nil
}

func (c *Client) stream(ctx context.Context, path string, in any, onChunk ChunkFunc) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("assist request rejected: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var full strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			full.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("assist stream interrupted: %w", err)
		}
	}
	return full.String(), nil
}
