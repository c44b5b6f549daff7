/*
 * file: session.go
 * package: services
 * description:
 *     The per-connection Player Session state machine: handshake, join /
 *     rejoin, inbound frame dispatch, heartbeat and shutdown. A Session
 *     talks only to its own Sender and to the injected Registry; it never
 *     reaches across rooms.
 */
package services

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"time"

	"github.com/orbitforge/roomserver/internal/protocol"
)

// sessionState is the Player Session's lifecycle state.
type sessionState int

const (
	stateConnected sessionState = iota
	stateInRoom
	stateClosed
)

const (
	heartbeatInterval = 5 * time.Second
	heartbeatTimeout  = 10 * time.Second
	joinCallTimeout   = 3 * time.Second
)

var roomCodePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Outbound is the duplex channel a Session drives: it can push frames to
// its own connection and be told to close it. The transport adapter
// implements this.
type Outbound interface {
	Sender
	Close() error
}

// Session drives one connection's protocol state machine.
type Session struct {
	registry *Registry
	conn     Outbound

	state    sessionState
	roomCode string
	playerID string

	lastHeartbeat time.Time
}

// NewSession constructs a Session bound to one connection and the shared
// Registry. The caller is responsible for invoking Heartbeat in its own
// goroutine and Dispatch for every inbound text frame.
func NewSession(registry *Registry, conn Outbound) *Session {
	return &Session{
		registry:      registry,
		conn:          conn,
		state:         stateConnected,
		lastHeartbeat: time.Now(),
	}
}

// Send implements Sender so the Registry can address this session directly
// as a room member, forwarding broadcasts to the underlying connection.
func (s *Session) Send(text string) error {
	return s.conn.Send(text)
}

// Dispatch handles one inbound text frame. Malformed JSON in a state event
// is a protocol fault: it terminates the session (§4.2, §7).
func (s *Session) Dispatch(frame string) {
	parsed, ok := protocol.Parse(frame)
	if !ok {
		s.conn.Send(protocol.UnknownEventReply(frame))
		return
	}

	switch parsed.Kind {
	case protocol.KindJoinGame:
		s.handleJoinGame(parsed.Payload)
	case protocol.KindCreateGame:
		s.handleCreateGame()
	case protocol.KindGameState:
		s.handleGameState(parsed.Payload)
	case protocol.KindPlayerState:
		s.handlePlayerState(parsed.Payload)
	case protocol.KindStartGame:
		s.handleStartGame(parsed.Payload)
	case protocol.KindPing:
		s.conn.Send(frame)
	default:
		s.conn.Send(protocol.UnknownEventReply(frame))
	}
}

type joinGameRequest struct {
	Code string `json:"code"`
}

func (s *Session) handleJoinGame(payload string) {
	var req joinGameRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		s.replyJoinFailure("malformed request")
		return
	}

	if len(req.Code) != 5 {
		s.replyJoinFailure("Code should be 5 characters")
		return
	}
	if !roomCodePattern.MatchString(req.Code) {
		s.replyJoinFailure("Code should be alpha numeric")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinCallTimeout)
	defer cancel()

	s.leaveCurrentRoom()

	playerID, err := s.registry.JoinGame(ctx, req.Code, s)
	if err != nil {
		s.replyJoinFailure(err.Error())
		return
	}

	s.state = stateInRoom
	s.roomCode = req.Code
	s.playerID = playerID
}

func (s *Session) handleCreateGame() {
	ctx, cancel := context.WithTimeout(context.Background(), joinCallTimeout)
	defer cancel()

	s.leaveCurrentRoom()

	playerID, code, err := s.registry.CreateGame(ctx, s)
	if err != nil {
		s.replyJoinFailure(err.Error())
		return
	}

	s.state = stateInRoom
	s.roomCode = code
	s.playerID = playerID
}

func (s *Session) replyJoinFailure(reason string) {
	s.conn.Send(protocol.Frame(protocol.KindJoinGame, protocol.FailedJoinGameAck(reason)))
}

func (s *Session) handleGameState(payload string) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		s.terminate("malformed GameState payload")
		return
	}
	secret, _ := obj["secret"].(string)
	if s.state != stateInRoom {
		return
	}
	s.registry.GameState(s.roomCode, s.playerID, secret, json.RawMessage(payload))
}

func (s *Session) handleStartGame(payload string) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		s.terminate("malformed StartGame payload")
		return
	}
	secret, _ := obj["secret"].(string)
	if s.state != stateInRoom {
		return
	}
	s.registry.StartGame(s.roomCode, s.playerID, secret)
}

func (s *Session) handlePlayerState(payload string) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		s.terminate("malformed PlayerState payload")
		return
	}
	if s.state != stateInRoom {
		return
	}
	obj["playerId"] = s.playerID
	rebuilt, err := json.Marshal(obj)
	if err != nil {
		s.terminate("malformed PlayerState payload")
		return
	}
	s.registry.GameMessage(s.roomCode, s.playerID, protocol.FrameRaw(protocol.KindPlayerState, string(rebuilt)))
}

// terminate closes the underlying connection on a protocol fault, without
// notifying any other player.
func (s *Session) terminate(reason string) {
	log.Printf("INFO: closing session %s: %s", s.playerID, reason)
	s.Close()
}

// leaveCurrentRoom implements the InRoom -> InRoom implicit-leave rule: a
// rejoin to a different room leaves the previous one first.
func (s *Session) leaveCurrentRoom() {
	if s.state != stateInRoom {
		return
	}
	s.registry.LeaveGame(s.roomCode, s.playerID)
	s.state = stateConnected
	s.roomCode = ""
	s.playerID = ""
}

// Close transitions the session to Closed, emitting LeaveGame if it was
// seated in a room, and closes the underlying connection.
func (s *Session) Close() {
	if s.state == stateClosed {
		return
	}
	s.leaveCurrentRoom()
	s.state = stateClosed
	s.conn.Close()
}

// Touch records a received pong, resetting the heartbeat timeout window.
func (s *Session) Touch() {
	s.lastHeartbeat = time.Now()
}

// HeartbeatExpired reports whether more than heartbeatTimeout has elapsed
// since the last received pong.
func (s *Session) HeartbeatExpired() bool {
	return time.Since(s.lastHeartbeat) > heartbeatTimeout
}

// Heartbeat is a pure watchdog: it never writes to the connection itself
// (the actual ping frame is sent by the transport's own writePump, sharing
// its single writer goroutine per connection). It only checks, on the same
// interval, whether the peer has gone quiet for longer than
// heartbeatTimeout, closing the session if so. Callers run this in its own
// goroutine.
func (s *Session) Heartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.HeartbeatExpired() {
				log.Printf("INFO: heartbeat timeout for session %s", s.playerID)
				s.Close()
				return
			}
		}
	}
}
