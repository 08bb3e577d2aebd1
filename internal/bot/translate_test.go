package bot

import (
	"testing"

	"github.com/mjai-relay/mjai-relay/internal/mjai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateTruncatesFourSeatArrays(t *testing.T) {
	ev := mjai.Event{
		"type":   "start_kyoku",
		"scores": []any{25000.0, 25000.0, 25000.0, 25000.0},
		"tehais": []any{"a", "b", "c", "d"},
	}

	out := translateFor3P(ev)

	require.Len(t, out["scores"], 3)
	assert.Equal(t, []any{25000.0, 25000.0, 25000.0}, out["scores"])
	require.Len(t, out["tehais"], 3)
	assert.Equal(t, []any{"a", "b", "c"}, out["tehais"])

	// the input is never mutated
	assert.Len(t, ev["scores"], 4)
	assert.Len(t, ev["tehais"], 4)
}

func TestTranslateLeavesThreeSeatArraysAlone(t *testing.T) {
	ev := mjai.Event{
		"type":   "start_kyoku",
		"scores": []any{35000.0, 35000.0, 35000.0},
	}

	out := translateFor3P(ev)

	assert.Equal(t, []any{35000.0, 35000.0, 35000.0}, out["scores"])
	assert.NotContains(t, out, "tehais")
}

func TestTranslateIgnoresOddShapedFields(t *testing.T) {
	ev := mjai.Event{
		"type":   "start_kyoku",
		"scores": "not-an-array",
	}

	out := translateFor3P(ev)
	assert.Equal(t, "not-an-array", out["scores"])
}

func TestTranslateRewritesNukidora(t *testing.T) {
	ev := mjai.Event{"type": "nukidora", "actor": 1, "pai": "N"}

	out := translateFor3P(ev)

	assert.Equal(t, mjai.EventKita, out.Type())
	assert.Equal(t, 1, out["actor"])
	assert.Equal(t, "N", out["pai"])
	assert.Equal(t, mjai.EventNukidora, ev.Type())
}

func TestTranslatePassesOtherEventsThrough(t *testing.T) {
	ev := mjai.Event{"type": "tsumo", "actor": 0, "pai": "1m"}
	assert.Equal(t, ev, translateFor3P(ev))
}
