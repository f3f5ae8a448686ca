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

// FindPosition loads the position of user in a stream, locking the row. It
// returns apperr.ErrPositionNotFound when the user never bought in.
func (r *Repository) FindPosition(ctx context.Context, streamID uint64, user string) (*models.UserPosition, error) {
	var position models.UserPosition
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stream_id = ? AND user_address = ?", streamID, user).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &position, nil
}

// FindOrNewPosition returns the existing position or an unsaved zero one.
// The second result reports whether the row already exists.
func (r *Repository) FindOrNewPosition(ctx context.Context, streamID uint64, user string) (*models.UserPosition, bool, error) {
	position, err := r.FindPosition(ctx, streamID, user)
	if errors.Is(err, apperr.ErrPositionNotFound) {
		return &models.UserPosition{StreamID: streamID, User: user}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return position, true, nil
}

// CreatePosition creates a new position
func (r *Repository) CreatePosition(ctx context.Context, position *models.UserPosition) error {
	return r.db.WithContext(ctx).Create(position).Error
}

// SavePosition updates a position
func (r *Repository) SavePosition(ctx context.Context, position *models.UserPosition) error {
	return r.db.WithContext(ctx).Save(position).Error
}

// ListPositionsByUser retrieves all positions held by a user
func (r *Repository) ListPositionsByUser(ctx context.Context, user string) ([]models.UserPosition, error) {
	var positions []models.UserPosition
	err := r.db.WithContext(ctx).
		Where("user_address = ?", user).
		Order("stream_id DESC").
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// ListPositionsByStream retrieves all positions in a stream
func (r *Repository) ListPositionsByStream(ctx context.Context, streamID uint64) ([]models.UserPosition, error) {
	var positions []models.UserPosition
	err := r.db.WithContext(ctx).
		Where("stream_id = ?", streamID).
		Order("user_address ASC").
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("list stream positions: %w", err)
	}
	return positions, nil
}
