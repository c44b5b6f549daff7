/*
 * file: match.go
 * package: domain
 * description:
 *     MatchRecord is the one persisted entity in this system: a summary
 *     row written after a room's lifecycle ends. It supplements the core
 *     spec with an operator-facing history surface; it is never read back
 *     into live room state.
 */
package domain

import "time"

// MatchRecord summarizes a room's lifetime for the history endpoint. It is
// written once, when the room is destroyed, and never updated again.
type MatchRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomCode    string    `gorm:"size:5;index;not null" json:"roomCode"`
	PlayerCount int       `gorm:"not null" json:"playerCount"`
	Started     bool      `gorm:"not null" json:"started"`
	OpenedAt    time.Time `json:"openedAt"`
	ClosedAt    time.Time `json:"closedAt"`
}
