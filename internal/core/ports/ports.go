/*
 * file: ports.go
 * package: ports
 * description:
 * 			This file defines the interfaces that form the boundaries of the application's core logic (hexagon).
 * 			These ports allow the core services to be decoupled from specific infrastructure implementations
 */

package ports

import (
	"context"

	"github.com/orbitforge/roomserver/internal/core/domain"
)

/* MatchHistoryRepository defines the contract for persisting the one-shot
 * summary a room leaves behind once it is destroyed. Any data storage
 * solution must implement this interface to be used by the registry.
 * Implementations must treat every call as best-effort: a failing write is
 * logged by the caller and otherwise ignored, never surfaced to a player.
 */
type MatchHistoryRepository interface {
	Save(ctx context.Context, record *domain.MatchRecord) error
	Recent(ctx context.Context, limit int) ([]domain.MatchRecord, error)
}
