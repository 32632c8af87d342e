package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/offnote/offnote/pkg/logging"
)

// SubscribeChanges opens the WebSocket change feed and dispatches events to
// the handlers until the subscription is closed. Dropped connections are
// redialed with capped exponential backoff; events published while the feed
// was down are not replayed, the next reconciliation covers that window.
func (g *HTTPGateway) SubscribeChanges(ctx context.Context, userID string, h ChangeHandlers) (Subscription, error) {
	if !g.Available() {
		return nil, ErrNotConfigured
	}

	token, err := g.token(ctx)
	if err != nil {
		return nil, err
	}

	streamURL, err := websocketURL(g.cfg.BaseURL, token)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &wsSubscription{
		url:      streamURL,
		handlers: h,
		log:      g.log.With("stream", "notes"),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go sub.run(runCtx)
	return sub, nil
}

func websocketURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("bad base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("bad base URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/notes/stream"
	u.RawQuery = url.Values{"access_token": {token}}.Encode()
	return u.String(), nil
}

type wsSubscription struct {
	url      string
	handlers ChangeHandlers
	log      logging.Logger

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

func (s *wsSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

func (s *wsSubscription) run(ctx context.Context) {
	defer close(s.done)

	delay := reconnectBase
	for {
		err := s.readLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn(ctx, "change feed disconnected, redialing", "error", err, "in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMax {
			delay = reconnectMax
		}
	}
}

func (s *wsSubscription) readLoop(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.log.Debug(ctx, "change feed connected")
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		s.dispatch(ctx, data)
	}
}

// dispatch applies one raw event. Malformed events are logged and dropped;
// they never take the feed down.
func (s *wsSubscription) dispatch(ctx context.Context, data []byte) {
	var ev changeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.log.Warn(ctx, "dropping malformed change event", "error", errors.Join(ErrMalformedPayload, err))
		return
	}

	switch ev.Type {
	case eventDelete:
		if ev.ID == "" {
			s.log.Warn(ctx, "dropping delete event without id")
			return
		}
		if s.handlers.OnDelete != nil {
			s.handlers.OnDelete(ev.ID)
		}

	case eventInsert, eventUpdate:
		var rec noteRecord
		if err := json.Unmarshal(ev.Record, &rec); err != nil {
			s.log.Warn(ctx, "dropping change event with bad record", "type", ev.Type, "error", err)
			return
		}
		n, err := decodeNote(rec)
		if err != nil {
			s.log.Warn(ctx, "dropping change event with bad record", "type", ev.Type, "error", err)
			return
		}
		if ev.Type == eventInsert && s.handlers.OnInsert != nil {
			s.handlers.OnInsert(n)
		}
		if ev.Type == eventUpdate && s.handlers.OnUpdate != nil {
			s.handlers.OnUpdate(n)
		}

	default:
		s.log.Warn(ctx, "dropping change event with unknown type", "type", ev.Type)
	}
}
