package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stream-market/internal/apperr"
	"stream-market/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// DB exposes the underlying handle, the transaction when bound with WithTx.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// GetStream retrieves a stream by id
func (r *Repository) GetStream(ctx context.Context, streamID uint64) (*models.Stream, error) {
	var stream models.Stream
	err := r.db.WithContext(ctx).Where("stream_id = ?", streamID).First(&stream).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrStreamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stream %d: %w", streamID, err)
	}
	return &stream, nil
}

// GetStreamForUpdate loads a stream and locks its row until the transaction
// ends. Drivers without row locks (SQLite) ignore the clause.
func (r *Repository) GetStreamForUpdate(ctx context.Context, streamID uint64) (*models.Stream, error) {
	var stream models.Stream
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stream_id = ?", streamID).
		First(&stream).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrStreamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock stream %d: %w", streamID, err)
	}
	return &stream, nil
}

// StreamExists reports whether a stream id has been taken
func (r *Repository) StreamExists(ctx context.Context, streamID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Stream{}).Where("stream_id = ?", streamID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check stream %d: %w", streamID, err)
	}
	return count > 0, nil
}

// CreateStream creates a new stream
func (r *Repository) CreateStream(ctx context.Context, stream *models.Stream) error {
	return r.db.WithContext(ctx).Create(stream).Error
}

// SaveStream updates a stream
func (r *Repository) SaveStream(ctx context.Context, stream *models.Stream) error {
	return r.db.WithContext(ctx).Save(stream).Error
}

// ListStreams retrieves streams newest first, optionally filtered by status
func (r *Repository) ListStreams(ctx context.Context, status models.StreamStatus, limit, offset int) ([]models.Stream, error) {
	var streams []models.Stream
	query := r.db.WithContext(ctx).Model(&models.Stream{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.
		Order("created_at DESC").
		Order("stream_id DESC").
		Limit(limit).
		Offset(offset).
		Find(&streams).Error
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	return streams, nil
}

// ListExpiredActiveStreams retrieves active streams whose end time has passed
func (r *Repository) ListExpiredActiveStreams(ctx context.Context, now int64, limit int) ([]models.Stream, error) {
	var streams []models.Stream
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", models.StreamStatusActive, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&streams).Error
	if err != nil {
		return nil, fmt.Errorf("list expired streams: %w", err)
	}
	return streams, nil
}
