package bot

import (
	"context"

	"github.com/mjai-relay/mjai-relay/internal/mjai"
	"go.uber.org/zap"
)

// processReaction validates a raw service reply and resolves the
// declare-then-discard sub-protocol for the bot's own riichi.
//
// A reply that is not a mapping with a type field is normalized to
// no-action; a malformed reply from the service is not a transport failure.
//
// When recurse is set and the reply is this seat's own reach declaration,
// the declaration is logically followed by a discard decision the caller
// needs before the game continues. The processor immediately issues a
// synthetic non-recursive follow-up request (same declaration, recurse off,
// so the depth is capped at one), embeds the resulting discard under
// reach_dahai, and arms the suppression flag: the game will re-announce this
// reach on the next turn and that echo is redundant.
func (s *Session) processReaction(ctx context.Context, reaction mjai.Reaction, recurse bool) (mjai.Reaction, error) {
	if !mjai.ValidReaction(reaction) {
		return nil, nil
	}

	actor, hasActor := reaction.Actor()
	if recurse && reaction.Type() == mjai.EventReach && hasActor && actor == s.seat {
		s.logger.Debug("resolving reach discard", zap.Int("seat", s.seat))
		followUp := mjai.Event{"type": string(mjai.EventReach), "actor": s.seat}
		dahai, err := s.react(ctx, followUp, false)
		if err != nil {
			return nil, err
		}
		reaction["reach_dahai"] = dahai
		s.suppressNextSelfReach = true
	}
	return reaction, nil
}
