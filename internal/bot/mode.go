package bot

import "errors"

// Mode selects the game variant. It determines which remote model serves the
// session and whether 3-player payload rewrites run; it is fixed for the
// lifetime of a session.
type Mode string

const (
	// Mode4P is the standard four-player game.
	Mode4P Mode = "4p"
	// Mode3P is the three-player (sanma) variant.
	Mode3P Mode = "3p"
)

// ErrUnsupportedMode is returned at session start when no remote model can
// serve the requested game mode. It is a setup-time configuration error,
// never retried.
var ErrUnsupportedMode = errors.New("unsupported game mode")

func (m Mode) valid() bool {
	return m == Mode4P || m == Mode3P
}
