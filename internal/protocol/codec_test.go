package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingPayload struct {
	Seq int `json:"seq"`
}

func TestFrame_RoundTripsThroughParse(t *testing.T) {
	frame := Frame(KindPing, pingPayload{Seq: 7})
	parsed, ok := Parse(frame)
	require.True(t, ok)
	assert.Equal(t, KindPing, parsed.Kind)
	assert.JSONEq(t, `{"seq":7}`, parsed.Payload)
}

func TestFrameRaw_PreservesRawJSONVerbatim(t *testing.T) {
	frame := FrameRaw(KindGameState, `{"tick":42,"x":1.5}`)
	parsed, ok := Parse(frame)
	require.True(t, ok)
	assert.Equal(t, KindGameState, parsed.Kind)
	assert.JSONEq(t, `{"tick":42,"x":1.5}`, parsed.Payload)
}

func TestParse_RejectsLegacyCommandFrames(t *testing.T) {
	_, ok := Parse("/nick somebody")
	assert.False(t, ok)
}

func TestParse_RejectsNonEventFrames(t *testing.T) {
	_, ok := Parse(`{"foo":"bar"}`)
	assert.False(t, ok)
}

func TestParse_HandlesKindWithoutPayload(t *testing.T) {
	parsed, ok := Parse("Event StartGame")
	require.True(t, ok)
	assert.Equal(t, "StartGame", parsed.Kind)
	assert.Empty(t, parsed.Payload)
}

func TestParse_TrimsSurroundingWhitespace(t *testing.T) {
	parsed, ok := Parse("  Event Ping:{}  ")
	require.True(t, ok)
	assert.Equal(t, KindPing, parsed.Kind)
}

func TestUnknownEventReply_IncludesOriginalFrame(t *testing.T) {
	reply := UnknownEventReply("garbage")
	assert.Contains(t, reply, "garbage")
	assert.Contains(t, reply, "unknown event")
}

func TestFrame_MarshalFailureFallsBackToEmptyObject(t *testing.T) {
	frame := Frame(KindSetMap, func() {})
	parsed, ok := Parse(frame)
	require.True(t, ok)
	assert.Equal(t, KindSetMap, parsed.Kind)
	assert.JSONEq(t, "{}", parsed.Payload)
}
