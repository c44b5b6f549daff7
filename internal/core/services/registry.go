/*
 * file: registry.go
 * package: services
 * description:
 *     The Room Registry: sole owner of all room state. A single worker
 *     goroutine drains a command channel so that, regardless of how many
 *     Player Sessions call in concurrently, at most one registry operation
 *     ever executes at a time (the generalized form of the teacher's
 *     Hub.Run register/unregister loop).
 */
package services

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/orbitforge/roomserver/internal/core/domain"
	"github.com/orbitforge/roomserver/internal/core/ports"
	"github.com/orbitforge/roomserver/internal/protocol"
)

const (
	codeAlphabet   = "ABCDEFGHKLMNOPQRSTUVWXYZ" // {A-Z} \ {I,J}
	codeLength     = 5
	secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	secretLength   = 10

	registryQueueSize  = 256
	historyWriteTimeout = 2 * time.Second
)

var (
	errCodeInvalid  = "code invalid"
	errGameRunning  = "game is running"
	errGameFull     = "game is full"
)

// Registry is an ordinary owned value: constructed by NewRegistry and
// injected into whatever wires up Player Sessions. There is no package-level
// singleton.
type Registry struct {
	commands chan command
	rooms    map[string]*domain.Room
	history  ports.MatchHistoryRepository
	now      func() time.Time
}

// NewRegistry constructs a Registry with its command queue unstarted; call
// Run in its own goroutine to begin serving operations.
func NewRegistry(history ports.MatchHistoryRepository) *Registry {
	return &Registry{
		commands: make(chan command, registryQueueSize),
		rooms:    make(map[string]*domain.Room),
		history:  history,
		now:      time.Now,
	}
}

// Run drains the command queue until ctx is canceled. It is the registry's
// single logical owner: every command below executes to completion before
// the next one is dequeued.
func (r *Registry) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.commands:
			cmd.execute(r)
		}
	}
}

// command is the sum type of registry operations. Each variant captures its
// own reply channel (or none, for fire-and-forget operations) and knows how
// to execute itself against the registry's private state.
type command interface {
	execute(r *Registry)
}

func (r *Registry) submit(cmd command) {
	r.commands <- cmd
}

// ---- CreateGame -----------------------------------------------------------

type createGameResult struct {
	playerID string
	roomCode string
	err      error
}

type createGameCmd struct {
	client Sender
	reply  chan createGameResult
}

// Sender is re-exported here for call-site convenience; it is the same
// interface as domain.Sender.
type Sender = domain.Sender

// CreateGame allocates a fresh room, admits the caller as its first player
// and leader, and returns the assigned player-id and room code.
func (r *Registry) CreateGame(ctx context.Context, client Sender) (string, string, error) {
	reply := make(chan createGameResult, 1)
	r.submit(createGameCmd{client: client, reply: reply})
	select {
	case res := <-reply:
		return res.playerID, res.roomCode, res.err
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

func (c createGameCmd) execute(r *Registry) {
	code := r.freshCode()
	room := domain.NewRoom(code, GenerateMap(), r.now().Unix())
	r.rooms[code] = room

	playerID, _, err := r.admit(room, c.client)
	if err != nil {
		delete(r.rooms, code)
		c.reply <- createGameResult{err: err}
		return
	}
	r.finishJoin(room, playerID)
	c.reply <- createGameResult{playerID: playerID, roomCode: code}
}

func (r *Registry) freshCode() string {
	for {
		code := randomCode()
		if _, exists := r.rooms[code]; !exists {
			return code
		}
	}
}

func randomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// ---- JoinGame ---------------------------------------------------------------

type joinGameResult struct {
	playerID string
	err      error
}

type joinGameCmd struct {
	code   string
	client Sender
	reply  chan joinGameResult
}

// JoinGame admits client to the named room, per §4.1.1's admission rules.
func (r *Registry) JoinGame(ctx context.Context, code string, client Sender) (string, error) {
	reply := make(chan joinGameResult, 1)
	r.submit(joinGameCmd{code: code, client: client, reply: reply})
	select {
	case res := <-reply:
		return res.playerID, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c joinGameCmd) execute(r *Registry) {
	room, exists := r.rooms[c.code]
	if !exists {
		c.reply <- joinGameResult{err: newJoinError(errCodeInvalid)}
		return
	}
	if room.Started {
		c.reply <- joinGameResult{err: newJoinError(errGameRunning)}
		return
	}
	if len(room.Players) == room.Map.PlayerCap {
		c.reply <- joinGameResult{err: newJoinError(errGameFull)}
		return
	}

	playerID, _, err := r.admit(room, c.client)
	if err != nil {
		c.reply <- joinGameResult{err: err}
		return
	}
	r.finishJoin(room, playerID)
	c.reply <- joinGameResult{playerID: playerID}
}

type joinError struct{ reason string }

func newJoinError(reason string) error { return &joinError{reason: reason} }
func (e *joinError) Error() string     { return e.reason }

// admit performs the shared admission work for both CreateGame and JoinGame:
// rejection-sample a fresh player-id and player-type, assign a spawn, and
// announce every pre-existing player to the newcomer before inserting it.
func (r *Registry) admit(room *domain.Room, client Sender) (string, domain.PlayerType, error) {
	for existingID, existing := range room.Players {
		client.Send(protocol.Frame(protocol.KindPlayerJoinedGame, protocol.PlayerJoinedPayload{
			PlayerID:   existingID,
			PlayerType: existing.PlayerType,
			Spawn:      existing.Spawn,
		}))
	}

	id := randomPlayerID()
	for {
		if _, taken := room.Players[id]; !taken {
			break
		}
		id = randomPlayerID()
	}

	pt := randomPlayerType()
	for typeInUse(room, pt) {
		pt = randomPlayerType()
	}

	spawn := room.Map.SpawnFor(len(room.Players))
	room.Players[id] = &domain.Player{ID: id, Client: client, PlayerType: pt, Spawn: spawn}
	room.MarkJoined(id)

	return id, pt, nil
}

func typeInUse(room *domain.Room, pt domain.PlayerType) bool {
	for _, p := range room.Players {
		if p.PlayerType == pt {
			return true
		}
	}
	return false
}

// randomPlayerID returns the decimal string of a random machine-word
// integer, per §3's player-id shape.
func randomPlayerID() string {
	return strconv.FormatUint(rand.Uint64(), 10)
}

func randomPlayerType() domain.PlayerType {
	return domain.AllPlayerTypes[rand.Intn(len(domain.AllPlayerTypes))]
}

// finishJoin sends the newcomer's ack + map, elects a leader if the room
// has none, and broadcasts the newcomer to everyone else.
func (r *Registry) finishJoin(room *domain.Room, newcomerID string) {
	newcomer := room.Players[newcomerID]

	newcomer.Client.Send(protocol.Frame(protocol.KindJoinGame,
		protocol.SucceededJoinGameAck(room.Code, newcomer.PlayerType, newcomer.Spawn)))
	newcomer.Client.Send(protocol.Frame(protocol.KindSetMap, room.Map))

	if !room.HasLeader() {
		r.electLeader(room, newcomerID)
	}

	r.broadcastExcept(room, newcomerID, protocol.Frame(protocol.KindPlayerJoinedGame, protocol.PlayerJoinedPayload{
		PlayerID:   newcomerID,
		PlayerType: newcomer.PlayerType,
		Spawn:      newcomer.Spawn,
	}))
}

func (r *Registry) electLeader(room *domain.Room, playerID string) {
	secret := randomSecret()
	room.Leader = playerID
	room.Secret = secret
	if player, ok := room.Players[playerID]; ok {
		player.Client.Send(protocol.Frame(protocol.KindRoomLeader, protocol.RoomLeaderPayload{Secret: secret}))
	}
}

func randomSecret() string {
	b := make([]byte, secretLength)
	for i := range b {
		b[i] = secretAlphabet[rand.Intn(len(secretAlphabet))]
	}
	return string(b)
}

// ---- LeaveGame --------------------------------------------------------------

type leaveGameCmd struct {
	code     string
	playerID string
}

// LeaveGame removes a player from a room; fire-and-forget, no reply awaited.
func (r *Registry) LeaveGame(code, playerID string) {
	r.submit(leaveGameCmd{code: code, playerID: playerID})
}

func (c leaveGameCmd) execute(r *Registry) {
	room, exists := r.rooms[c.code]
	if !exists {
		return
	}
	if _, present := room.Players[c.playerID]; !present {
		return
	}
	delete(room.Players, c.playerID)

	r.broadcastExcept(room, c.playerID, protocol.Frame(protocol.KindPlayerLeftGame, protocol.PlayerLeftPayload{PlayerID: c.playerID}))

	if len(room.Players) == 0 {
		delete(r.rooms, c.code)
		r.persistHistory(room)
		return
	}

	if room.Leader == c.playerID {
		for remainingID := range room.Players {
			r.electLeader(room, remainingID)
			break
		}
	}
}

func (r *Registry) persistHistory(room *domain.Room) {
	if r.history == nil {
		return
	}
	record := &domain.MatchRecord{
		RoomCode:    room.Code,
		PlayerCount: room.EverJoinedCount(),
		Started:     room.Started,
		OpenedAt:    time.Unix(room.OpenedAt(), 0).UTC(),
		ClosedAt:    r.now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()
	if err := r.history.Save(ctx, record); err != nil {
		log.Printf("WARN: could not persist match history for room %s: %v", room.Code, err)
	}
}

// ---- GameState ---------------------------------------------------------------

type gameStateCmd struct {
	code, senderID, secret string
	payload                json.RawMessage
}

// GameState forwards a leader-authenticated payload to every other player
// in the room. Unauthenticated calls are silently dropped, per §4.1.4.
func (r *Registry) GameState(code, senderID, secret string, payload json.RawMessage) {
	r.submit(gameStateCmd{code: code, senderID: senderID, secret: secret, payload: payload})
}

func (c gameStateCmd) execute(r *Registry) {
	room, exists := r.rooms[c.code]
	if !exists || !r.authenticated(room, c.senderID, c.secret) {
		return
	}
	r.broadcastExcept(room, c.senderID, protocol.FrameRaw(protocol.KindGameState, string(c.payload)))
}

func (r *Registry) authenticated(room *domain.Room, senderID, secret string) bool {
	return room.Leader == senderID && room.Secret == secret && secret != ""
}

// ---- StartGame ---------------------------------------------------------------

type startGameCmd struct {
	code, senderID, secret string
}

// StartGame marks the room started and broadcasts Event StartGame:{} once
// the sender authenticates as leader. §4.1.4.
func (r *Registry) StartGame(code, senderID, secret string) {
	r.submit(startGameCmd{code: code, senderID: senderID, secret: secret})
}

func (c startGameCmd) execute(r *Registry) {
	room, exists := r.rooms[c.code]
	if !exists || !r.authenticated(room, c.senderID, c.secret) {
		return
	}
	room.Started = true
	r.broadcastExcept(room, c.senderID, protocol.FrameRaw(protocol.KindStartGame, "{}"))
}

// ---- GameMessage --------------------------------------------------------------

type gameMessageCmd struct {
	code, senderID, text string
}

// GameMessage is a best-effort plain-text broadcast, used by the legacy
// chat-style commands; see the Open Question in spec.md §9 on whether this
// remains a client-facing capability.
func (r *Registry) GameMessage(code, senderID, text string) {
	r.submit(gameMessageCmd{code: code, senderID: senderID, text: text})
}

func (c gameMessageCmd) execute(r *Registry) {
	room, exists := r.rooms[c.code]
	if !exists {
		return
	}
	r.broadcastExcept(room, c.senderID, c.text)
}

// ---- ListGames ----------------------------------------------------------------

type listGamesCmd struct {
	reply chan []string
}

// ListGames returns every currently open room code. The wire protocol does
// not currently expose this operation to clients (spec.md §9), but the
// registry retains it for operational tooling and tests.
func (r *Registry) ListGames(ctx context.Context) []string {
	reply := make(chan []string, 1)
	r.submit(listGamesCmd{reply: reply})
	select {
	case codes := <-reply:
		return codes
	case <-ctx.Done():
		return nil
	}
}

func (c listGamesCmd) execute(r *Registry) {
	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	c.reply <- codes
}

// ---- broadcast ----------------------------------------------------------------

// broadcastExcept is the core §4.1.5 operation: send text to every player in
// room except src, evicting any recipient whose send fails. The source is
// never evicted by its own broadcast.
func (r *Registry) broadcastExcept(room *domain.Room, src string, text string) {
	for id, player := range room.Players {
		if id == src {
			continue
		}
		if err := player.Client.Send(text); err != nil {
			delete(room.Players, id)
		}
	}
}
