package mjai

// EventType identifies an mjai protocol message.
type EventType string

const (
	// Game/round lifecycle events
	EventNone       EventType = "none"
	EventStartGame  EventType = "start_game"
	EventStartKyoku EventType = "start_kyoku"
	EventEndKyoku   EventType = "end_kyoku"
	EventEndGame    EventType = "end_game"

	// Turn events
	EventTsumo EventType = "tsumo"
	EventDahai EventType = "dahai"

	// Call declarations
	EventPon       EventType = "pon"
	EventChi       EventType = "chi"
	EventAnkan     EventType = "ankan"
	EventDaiminkan EventType = "daiminkan"
	EventKakan     EventType = "kakan"

	// Riichi declaration and its acceptance
	EventReach         EventType = "reach"
	EventReachAccepted EventType = "reach_accepted"

	// Round results
	EventHora     EventType = "hora"
	EventRyukyoku EventType = "ryukyoku"

	// North-tile exchange: nukidora is the 3-player move, kita is the
	// equivalent in the shared 4-player model vocabulary.
	EventNukidora EventType = "nukidora"
	EventKita     EventType = "kita"
)

// Event is one inbound game-state notification. The payload shape is
// dictated by the mjai wire contract, so it stays a dynamic mapping; every
// event carries a "type" field and actor-scoped events carry an "actor"
// seat index. Events are treated as immutable once received: transformations
// operate on a Clone, never on the original.
type Event map[string]any

// Type returns the event's type field, or "" when absent or not a string.
func (e Event) Type() EventType {
	t, _ := e["type"].(string)
	return EventType(t)
}

// Actor returns the event's actor seat index. JSON decoding yields float64
// for numbers, so both numeric encodings are accepted.
func (e Event) Actor() (int, bool) {
	switch v := e["actor"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the event. Field values are shared with
// the original, so callers must replace fields rather than mutate them.
func (e Event) Clone() Event {
	if e == nil {
		return nil
	}
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Reaction is the remote service's reply to a submitted event or batch. It
// is event-shaped; a nil Reaction means "no action".
type Reaction = Event

// ValidReaction reports whether r is a usable reaction: a structured mapping
// carrying a "type" field. Anything else is normalized to no-action by the
// caller, not treated as an error.
func ValidReaction(r Reaction) bool {
	if r == nil {
		return false
	}
	_, ok := r["type"]
	return ok
}
