/*
 * file: codec.go
 * package: protocol
 * description:
 *     Builds and parses the text-frame wire format shared by every
 *     connection: "Event <Kind>:<json>". This package has no knowledge of
 *     rooms or sessions; it only knows how to frame and unframe bytes.
 */
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event kinds recognized on the wire, both inbound and outbound.
const (
	KindJoinGame         = "JoinGame"
	KindCreateGame       = "CreateGame"
	KindRoomLeader       = "RoomLeader"
	KindPlayerJoinedGame = "PlayerJoinedGame"
	KindPlayerLeftGame   = "PlayerLeftGame"
	KindSetMap           = "SetMap"
	KindGameState        = "GameState"
	KindStartGame        = "StartGame"
	KindPlayerState      = "PlayerState"
	KindPing             = "Ping"
)

const framePrefix = "Event "

// Frame builds "Event <kind>:<json(payload)>". Marshal errors collapse to an
// empty JSON object; every payload type in this package is guaranteed to
// marshal cleanly, so this path is defensive rather than expected.
func Frame(kind string, payload interface{}) string {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte("{}")
	}
	return framePrefix + kind + ":" + string(body)
}

// FrameRaw builds "Event <kind>:<rawJSON>" without re-marshaling, used when
// forwarding a payload the server only partially inspected (GameState,
// rebroadcast PlayerState).
func FrameRaw(kind string, rawJSON string) string {
	return framePrefix + kind + ":" + rawJSON
}

// UnknownEventReply builds the local-only reply to an unrecognized frame.
func UnknownEventReply(original string) string {
	return fmt.Sprintf("!!! unknown event: %s", original)
}

// ParsedFrame is the result of splitting an inbound text frame.
type ParsedFrame struct {
	Kind    string
	Payload string
}

// Parse trims the frame and, if it is an Event frame, splits it into its
// kind and raw JSON payload. ok is false for anything not starting with
// "Event " (e.g. legacy "/command" frames, which the caller may handle
// separately).
func Parse(frame string) (ParsedFrame, bool) {
	trimmed := strings.TrimSpace(frame)
	if !strings.HasPrefix(trimmed, framePrefix) {
		return ParsedFrame{}, false
	}
	rest := strings.TrimPrefix(trimmed, framePrefix)
	kind, payload, found := strings.Cut(rest, ":")
	if !found {
		return ParsedFrame{Kind: kind}, true
	}
	return ParsedFrame{Kind: kind, Payload: payload}, true
}
