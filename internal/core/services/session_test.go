package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitforge/roomserver/internal/protocol"
)

// fakeOutbound implements Outbound for session tests: it records sent frames
// and tracks whether Close was called.
type fakeOutbound struct {
	mu     sync.Mutex
	sent   []string
	closed bool
}

func (f *fakeOutbound) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeOutbound) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeOutbound) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeOutbound) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestSession_JoinGame_RejectsShortCode(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	s.Dispatch(protocol.Frame(protocol.KindJoinGame, map[string]string{"code": "AB"}))

	msgs := out.messages()
	require.Len(t, msgs, 1)
	parsed, ok := protocol.Parse(msgs[0])
	require.True(t, ok)
	var ack protocol.JoinGameAck
	require.NoError(t, json.Unmarshal([]byte(parsed.Payload), &ack))
	assert.False(t, ack.OK)
	require.NotNil(t, ack.Reason)
	assert.Equal(t, "Code should be 5 characters", *ack.Reason)
}

func TestSession_JoinGame_RejectsNonAlphanumericCode(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	s.Dispatch(protocol.Frame(protocol.KindJoinGame, map[string]string{"code": "AB!@#"}))

	msgs := out.messages()
	require.Len(t, msgs, 1)
	parsed, _ := protocol.Parse(msgs[0])
	var ack protocol.JoinGameAck
	require.NoError(t, json.Unmarshal([]byte(parsed.Payload), &ack))
	assert.False(t, ack.OK)
	require.NotNil(t, ack.Reason)
	assert.Equal(t, "Code should be alpha numeric", *ack.Reason)
}

func TestSession_JoinGame_RejectsUnknownCode(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	s.Dispatch(protocol.Frame(protocol.KindJoinGame, map[string]string{"code": "ZZZZZ"}))

	msgs := out.messages()
	require.Len(t, msgs, 1)
	parsed, _ := protocol.Parse(msgs[0])
	var ack protocol.JoinGameAck
	require.NoError(t, json.Unmarshal([]byte(parsed.Payload), &ack))
	assert.False(t, ack.OK)
	require.NotNil(t, ack.Reason)
	assert.Equal(t, errCodeInvalid, *ack.Reason)
}

func TestSession_CreateThenJoinGame_RoundTrip(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	leaderOut := &fakeOutbound{}
	leader := NewSession(r, leaderOut)
	leader.Dispatch(protocol.Frame(protocol.KindCreateGame, struct{}{}))

	msgs := leaderOut.messages()
	require.GreaterOrEqual(t, len(msgs), 3)

	joinFrame, ok := findFrameOfKind(msgs, protocol.KindJoinGame)
	require.True(t, ok)
	parsed, _ := protocol.Parse(joinFrame)
	var ack protocol.JoinGameAck
	require.NoError(t, json.Unmarshal([]byte(parsed.Payload), &ack))
	require.True(t, ack.OK)
	require.NotNil(t, ack.Code)

	joinerOut := &fakeOutbound{}
	joiner := NewSession(r, joinerOut)
	joiner.Dispatch(protocol.Frame(protocol.KindJoinGame, map[string]string{"code": *ack.Code}))

	joinerMsgs := joinerOut.messages()
	joinerAckFrame, ok := findFrameOfKind(joinerMsgs, protocol.KindJoinGame)
	require.True(t, ok)
	jp, _ := protocol.Parse(joinerAckFrame)
	var jAck protocol.JoinGameAck
	require.NoError(t, json.Unmarshal([]byte(jp.Payload), &jAck))
	assert.True(t, jAck.OK)
}

func TestSession_PlayerState_InjectsServerAssignedPlayerID(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	leaderOut := &fakeOutbound{}
	leader := NewSession(r, leaderOut)
	leader.Dispatch(protocol.Frame(protocol.KindCreateGame, struct{}{}))
	serverAssignedID := leader.playerID
	require.NotEmpty(t, serverAssignedID)

	joinFrame, ok := findFrameOfKind(leaderOut.messages(), protocol.KindJoinGame)
	require.True(t, ok)
	jp, _ := protocol.Parse(joinFrame)
	var ack protocol.JoinGameAck
	require.NoError(t, json.Unmarshal([]byte(jp.Payload), &ack))
	require.NotNil(t, ack.Code)

	otherOut := &fakeOutbound{}
	other := NewSession(r, otherOut)
	other.Dispatch(protocol.Frame(protocol.KindJoinGame, map[string]string{"code": *ack.Code}))

	// Client attempts to spoof another player's id; the session must
	// overwrite it with the server-assigned id regardless of what the
	// broadcast payload reaches the rest of the room with.
	leader.Dispatch(protocol.FrameRaw(protocol.KindPlayerState, `{"playerId":"spoofed","x":1,"y":2}`))

	var relayed string
	require.Eventually(t, func() bool {
		for _, m := range otherOut.messages() {
			if p, ok := protocol.Parse(m); ok && p.Kind == protocol.KindPlayerState {
				relayed = p.Payload
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, relayed, serverAssignedID)
	assert.NotContains(t, relayed, "spoofed")
}

func TestSession_Ping_Echoes(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	frame := protocol.Frame(protocol.KindPing, struct{}{})
	s.Dispatch(frame)

	msgs := out.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, frame, msgs[0])
}

func TestSession_UnknownFrame_RepliesWithUnknownEvent(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	s.Dispatch("not an event frame at all")

	msgs := out.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "unknown event")
}

func TestSession_MalformedGameState_TerminatesSession(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	s.Dispatch(protocol.Frame(protocol.KindCreateGame, struct{}{}))

	s.Dispatch(protocol.FrameRaw(protocol.KindGameState, "not-json"))
	assert.True(t, out.isClosed())
}

func TestSession_MalformedStartGame_TerminatesSession(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	s.Dispatch(protocol.Frame(protocol.KindCreateGame, struct{}{}))

	s.Dispatch(protocol.FrameRaw(protocol.KindStartGame, "not-json"))
	assert.True(t, out.isClosed())
}

func TestSession_MalformedPlayerState_TerminatesSession(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	out := &fakeOutbound{}
	s := NewSession(r, out)
	s.Dispatch(protocol.Frame(protocol.KindCreateGame, struct{}{}))

	s.Dispatch(protocol.FrameRaw(protocol.KindPlayerState, "not-json"))
	assert.True(t, out.isClosed())
}

func TestSession_RejoinDifferentRoom_LeavesPreviousFirst(t *testing.T) {
	r, cancel := newTestRegistry(t)
	defer cancel()

	firstOut := &fakeOutbound{}
	first := NewSession(r, firstOut)
	first.Dispatch(protocol.Frame(protocol.KindCreateGame, struct{}{}))
	firstCode := first.roomCode

	secondOut := &fakeOutbound{}
	second := NewSession(r, secondOut)
	second.Dispatch(protocol.Frame(protocol.KindCreateGame, struct{}{}))
	secondCode := second.roomCode
	require.NotEqual(t, firstCode, secondCode)

	// First session rejoins into second's room; this implicitly leaves its
	// original room.
	first.Dispatch(protocol.Frame(protocol.KindJoinGame, map[string]string{"code": secondCode}))
	assert.Equal(t, secondCode, first.roomCode)
}
