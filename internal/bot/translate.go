package bot

import "github.com/mjai-relay/mjai-relay/internal/mjai"

// translateFor3P rewrites an event so the shared 4-player service contract
// accepts it. Two rules apply, both on a shallow copy (the input is never
// mutated):
//
//  1. start_kyoku: a 4-entry scores or tehais array is truncated to the
//     first 3 entries. Arrays already in 3-player shape, or absent, pass
//     through untouched.
//  2. nukidora, the 3-player north-tile exchange, is rewritten to kita, its
//     name in the 4-player model vocabulary.
//
// Every other event type is returned unchanged.
func translateFor3P(ev mjai.Event) mjai.Event {
	switch ev.Type() {
	case mjai.EventStartKyoku:
		out := ev.Clone()
		trimToThreeSeats(out, "scores")
		trimToThreeSeats(out, "tehais")
		return out
	case mjai.EventNukidora:
		out := ev.Clone()
		out["type"] = string(mjai.EventKita)
		return out
	default:
		return ev
	}
}

// trimToThreeSeats truncates a 4-entry per-seat array field to 3 entries.
// Only exactly-4 arrays are touched, so a payload already in 3-player shape
// is never re-truncated and a differently-shaped value never fails.
func trimToThreeSeats(ev mjai.Event, field string) {
	vals, ok := ev[field].([]any)
	if !ok || len(vals) != 4 {
		return
	}
	ev[field] = vals[:3]
}
