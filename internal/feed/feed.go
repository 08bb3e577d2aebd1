// Package feed bridges the game-side websocket event stream to a relay
// session. The upstream proxy that produces the stream is a separate
// application; this side only consumes ordered event frames and writes the
// service's reactions back on the same connection.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mjai-relay/mjai-relay/internal/mjai"
	"go.uber.org/zap"
)

// Reactor is the session surface the feed drives.
type Reactor interface {
	React(ctx context.Context, ev mjai.Event) (mjai.Reaction, error)
	ReactBatch(ctx context.Context, events []mjai.Event) (mjai.Reaction, error)
}

// Feed relays frames between one websocket connection and one session.
type Feed struct {
	url     string
	session Reactor
	logger  *zap.Logger
	dialer  *websocket.Dialer
}

// New creates a feed that dials the event stream at url.
func New(url string, session Reactor, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		url:     url,
		session: session,
		logger:  logger,
		dialer:  websocket.DefaultDialer,
	}
}

// frame is one inbound websocket message: either a single event (a mapping
// with a type field) or a catch-up batch under an events key.
type frame struct {
	events []mjai.Event
	single mjai.Event
}

// Run connects and relays until the context ends or the stream closes.
func (f *Feed) Run(ctx context.Context) error {
	conn, resp, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed %s: %w", f.url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Unblocks the blocking read when the context ends.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	f.logger.Info("feed connected", zap.String("url", f.url))
	return f.serve(ctx, conn)
}

// serve pumps one connection. Every inbound frame produces exactly one
// outbound reply; a no-action result is written as a none-typed reaction so
// the frame pairing stays in step.
func (f *Feed) serve(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.logger.Info("feed closed by peer")
				return nil
			}
			return fmt.Errorf("read feed: %w", err)
		}

		fr, err := decodeFrame(data)
		if err != nil {
			f.logger.Warn("discarding malformed feed frame", zap.Error(err))
			continue
		}

		reaction, err := f.dispatch(ctx, fr)
		if err != nil {
			return fmt.Errorf("relay event: %w", err)
		}
		if reaction == nil {
			reaction = mjai.Reaction{"type": string(mjai.EventNone)}
		}
		if err := conn.WriteJSON(reaction); err != nil {
			return fmt.Errorf("write reaction: %w", err)
		}
	}
}

func (f *Feed) dispatch(ctx context.Context, fr frame) (mjai.Reaction, error) {
	if fr.events != nil {
		f.logger.Debug("relaying batch frame", zap.Int("events", len(fr.events)))
		return f.session.ReactBatch(ctx, fr.events)
	}
	f.logger.Debug("relaying event", zap.String("type", string(fr.single.Type())))
	return f.session.React(ctx, fr.single)
}

func decodeFrame(data []byte) (frame, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return frame{}, err
	}
	if rawEvents, ok := raw["events"]; ok {
		events := []mjai.Event{}
		if err := json.Unmarshal(rawEvents, &events); err != nil {
			return frame{}, err
		}
		return frame{events: events}, nil
	}
	var ev mjai.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return frame{}, err
	}
	return frame{single: ev}, nil
}

// Handler returns an http.Handler serving a feed endpoint in-process,
// upgrading each connection and relaying its frames to the session. This is
// the listening counterpart of Run for setups where the game side dials in.
func Handler(session Reactor, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("feed upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		f := &Feed{session: session, logger: logger}
		if err := f.serve(r.Context(), conn); err != nil {
			logger.Warn("feed connection ended", zap.Error(err))
		}
	})
}
