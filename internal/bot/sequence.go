package bot

// sequence generates the wrapping message ids that correlate outgoing
// actions with the remote session's buffer. It starts at -1 so the first
// stamped action carries id 0, and advances by exactly one (mod bound) per
// transmitted action. Not safe for concurrent use; a session owns exactly
// one of these.
type sequence struct {
	id    int
	bound int
}

func newSequence(bound int) *sequence {
	return &sequence{id: -1, bound: bound}
}

// next advances the counter and returns the new id.
func (s *sequence) next() int {
	s.id = (s.id + 1) % s.bound
	return s.id
}

// current returns the last issued id without advancing.
func (s *sequence) current() int {
	return s.id
}

// restore rewinds the counter to a previously observed id. Used when a
// remote call fails after exhausting its retries, so the local counter and
// the remote buffer expectation diverge together and recoverably.
func (s *sequence) restore(id int) {
	s.id = id
}
