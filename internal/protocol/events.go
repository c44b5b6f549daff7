/*
 * file: events.go
 * package: protocol
 * description:
 *     Wire payload shapes for every outbound Event frame. Field names are
 *     camelCase to match the client-side JSON contract.
 */
package protocol

import "github.com/orbitforge/roomserver/internal/core/domain"

// RoomLeaderPayload is sent to the player elected leader, carrying the
// secret they must echo back on GameState/StartGame to authenticate.
type RoomLeaderPayload struct {
	Secret string `json:"secret"`
}

// JoinGameAck is the reply to a join or create request, successful or not.
type JoinGameAck struct {
	OK         bool              `json:"ok"`
	Reason     *string           `json:"reason"`
	Code       *string           `json:"code"`
	PlayerType *domain.PlayerType `json:"playerType"`
	Spawn      *domain.Coordinates `json:"spawn"`
}

// FailedJoinGameAck builds the {"ok":false,...} shape for a rejected join.
func FailedJoinGameAck(reason string) JoinGameAck {
	return JoinGameAck{OK: false, Reason: &reason}
}

// SucceededJoinGameAck builds the {"ok":true,...} shape for an admitted join.
func SucceededJoinGameAck(code string, pt domain.PlayerType, spawn domain.Coordinates) JoinGameAck {
	return JoinGameAck{OK: true, Code: &code, PlayerType: &pt, Spawn: &spawn}
}

// PlayerJoinedPayload announces a newcomer to the rest of the room (or
// summarizes a pre-existing player to the newcomer).
type PlayerJoinedPayload struct {
	PlayerID   string            `json:"playerId"`
	PlayerType domain.PlayerType `json:"playerType"`
	Spawn      domain.Coordinates `json:"spawn"`
}

// PlayerLeftPayload announces a departure.
type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}
