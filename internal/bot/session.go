// Package bot implements the relay between a live game and the MJAPI
// decision service: it stamps events with wrapping sequence ids, batches
// catch-up history, retries transient transport failures without
// desynchronizing the remote session, and rewrites 3-player payloads for the
// 4-player-shaped service contract.
package bot

import (
	"context"
	"fmt"

	"github.com/mjai-relay/mjai-relay/internal/mjai"
	"github.com/mjai-relay/mjai-relay/internal/mjapi"
	"go.uber.org/zap"
)

// Session relays one game's events to the remote decision service. State is
// created at game start and discarded at game end; the remote bot resources
// behind it are managed by Manager.
//
// A Session is strictly sequential: events are processed one at a time in
// arrival order, remote calls block, and the sequence counter and
// suppression flag are unsynchronized. Callers that process games
// concurrently must use one Session per game.
type Session struct {
	seat   int
	mode   Mode
	cfg    Config
	caller mjapi.Caller
	seq    *sequence
	logger *zap.Logger

	// suppressNextSelfReach is armed when the reach sub-protocol has already
	// resolved the following turn's redundant self-reach echo. It stays
	// armed until a matching echo arrives, with no timeout: if the echo is
	// dropped upstream, the next genuine self-reach from this seat would be
	// swallowed. Known risk, kept deliberately.
	suppressNextSelfReach bool
}

// NewSession creates the relay state for one game. The mode is immutable for
// the session's lifetime; an unknown mode is a fatal configuration error
// raised before any turn processing begins.
func NewSession(seat int, mode Mode, cfg Config, caller mjapi.Caller, logger *zap.Logger) (*Session, error) {
	if !mode.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Session{
		seat:   seat,
		mode:   mode,
		cfg:    cfg,
		caller: caller,
		seq:    newSequence(cfg.Bound),
		logger: logger,
	}, nil
}

// Seat returns the bot's seat index for this game.
func (s *Session) Seat() int {
	return s.seat
}

// Mode returns the game variant this session was started with.
func (s *Session) Mode() Mode {
	return s.mode
}

// React submits a single event and returns the service's chosen action, nil
// when the service does not act.
func (s *Session) React(ctx context.Context, ev mjai.Event) (mjai.Reaction, error) {
	return s.react(ctx, ev, true)
}

func (s *Session) react(ctx context.Context, ev mjai.Event, recurse bool) (mjai.Reaction, error) {
	if s.suppressNextSelfReach && s.isSelfReach(ev) {
		s.suppressNextSelfReach = false
		s.logger.Debug("ignoring redundant self reach echo")
		return nil, nil
	}

	prev := s.seq.current()
	seq := s.seq.next()
	out := s.translate(ev)

	reaction, err := s.callWithRetry(ctx, prev, func(ctx context.Context) (mjai.Reaction, error) {
		return s.caller.Act(ctx, seq, out)
	})
	if err != nil {
		return nil, err
	}
	return s.processReaction(ctx, reaction, recurse)
}

// ReactBatch submits an ordered list of events, chunked into fixed-size
// batched calls. Only the last event of the final chunk represents the
// game's present decision point, so only it is left actionable; earlier
// chunks carry an explicit can-act=false override on their tail and their
// reactions are discarded. The override guarantees the service returns
// nothing actionable for them; that is a contract with the service, not
// enforced here. Sequence ids advance per event, not per chunk.
func (s *Session) ReactBatch(ctx context.Context, events []mjai.Event) (mjai.Reaction, error) {
	if s.suppressNextSelfReach && len(events) > 0 && s.isSelfReach(events[0]) {
		s.suppressNextSelfReach = false
		s.logger.Debug("ignoring redundant self reach echo")
		events = events[1:]
	}
	if len(events) == 0 {
		return nil, nil
	}

	chunks := (len(events)-1)/s.cfg.BatchSize + 1
	for i := 0; i < chunks; i++ {
		start := i * s.cfg.BatchSize
		end := min(start+s.cfg.BatchSize, len(events))
		final := i+1 == chunks

		reaction, err := s.reactChunk(ctx, events[start:end], final)
		if err != nil {
			return nil, err
		}
		if final {
			return s.processReaction(ctx, reaction, true)
		}
	}
	return nil, nil
}

// reactChunk stamps and dispatches one batched call. canAct marks whether
// this is the final chunk; when it is not, the chunk's tail gets the
// explicit false override.
func (s *Session) reactChunk(ctx context.Context, events []mjai.Event, canAct bool) (mjai.Reaction, error) {
	prev := s.seq.current()
	actions := make([]mjapi.Action, 0, len(events))
	for i, ev := range events {
		action := mjapi.Action{Seq: s.seq.next(), Data: s.translate(ev)}
		if i+1 == len(events) && !canAct {
			f := false
			action.CanAct = &f
		}
		actions = append(actions, action)
	}

	return s.callWithRetry(ctx, prev, func(ctx context.Context) (mjai.Reaction, error) {
		return s.caller.Batch(ctx, actions)
	})
}

// translate applies the 3-player rewrites; in 4-player mode every event
// passes through untouched.
func (s *Session) translate(ev mjai.Event) mjai.Event {
	if s.mode != Mode3P {
		return ev
	}
	return translateFor3P(ev)
}

func (s *Session) isSelfReach(ev mjai.Event) bool {
	actor, ok := ev.Actor()
	return ev.Type() == mjai.EventReach && ok && actor == s.seat
}
