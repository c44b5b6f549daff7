/*
 * file: repository.go
 * package: repository
 * description:
 *     Provides the concrete GORM implementation of ports.MatchHistoryRepository.
 *     This struct acts as an adapter, translating registry calls into
 *     database-specific queries, allowing the core business logic to remain
 *     decoupled from storage details.
 */

package repository

import (
	"context"

	"github.com/orbitforge/roomserver/internal/core/domain"

	"gorm.io/gorm"
)

/*
 * GormMatchHistoryRepository is the GORM implementation of the
 * MatchHistoryRepository port.
 *
 * Responsibilities:
 *   - Persist one MatchRecord per destroyed room.
 *   - Serve the most recent records for the operator-facing history endpoint.
 */
type GormMatchHistoryRepository struct {
	db *gorm.DB
}

/*
 * NewGormMatchHistoryRepository constructs a new GormMatchHistoryRepository
 * instance.
 *
 * Parameters:
 *   - db (*gorm.DB): A GORM database connection instance.
 *
 * Returns:
 *   - *GormMatchHistoryRepository: A repository instance bound to the database.
 */
func NewGormMatchHistoryRepository(db *gorm.DB) *GormMatchHistoryRepository {
	return &GormMatchHistoryRepository{db: db}
}

/*
 * Save persists a single MatchRecord.
 *
 * Parameters:
 *   - ctx (context.Context): Bounds how long the write may take.
 *   - record (*domain.MatchRecord): The record to persist.
 *
 * Returns:
 *   - error: An error if the insert fails, otherwise nil.
 */
func (r *GormMatchHistoryRepository) Save(ctx context.Context, record *domain.MatchRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

/*
 * Recent retrieves the most recently closed rooms, newest first.
 *
 * Parameters:
 *   - ctx (context.Context): Bounds how long the query may take.
 *   - limit (int): The maximum number of records to retrieve.
 *
 * Returns:
 *   - []domain.MatchRecord: The matching records, newest first.
 *   - error: An error if the query fails.
 */
func (r *GormMatchHistoryRepository) Recent(ctx context.Context, limit int) ([]domain.MatchRecord, error) {
	var records []domain.MatchRecord
	err := r.db.WithContext(ctx).Order("closed_at desc").Limit(limit).Find(&records).Error
	return records, err
}
