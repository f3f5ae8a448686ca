package services

import (
	"context"

	"stream-market/internal/amm"
	"stream-market/internal/apperr"
	"stream-market/internal/escrow"
	"stream-market/internal/events"
	"stream-market/internal/fixedpoint"
	"stream-market/internal/lifecycle"
	"stream-market/internal/models"
)

// Quote sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// GetStream retrieves a stream by id
func (s *MarketService) GetStream(ctx context.Context, streamID uint64) (*models.Stream, error) {
	return s.repo.GetStream(ctx, streamID)
}

// ListStreams retrieves streams newest first
func (s *MarketService) ListStreams(ctx context.Context, status models.StreamStatus, limit, offset int) ([]models.Stream, error) {
	return s.repo.ListStreams(ctx, status, limit, offset)
}

// GetPosition retrieves a user's position in a stream
func (s *MarketService) GetPosition(ctx context.Context, streamID uint64, user string) (*models.UserPosition, error) {
	return s.repo.FindPosition(ctx, streamID, user)
}

// ListUserPositions retrieves every position held by user
func (s *MarketService) ListUserPositions(ctx context.Context, user string) ([]models.UserPosition, error) {
	return s.repo.ListPositionsByUser(ctx, user)
}

// ListStreamPositions retrieves every position in a stream
func (s *MarketService) ListStreamPositions(ctx context.Context, streamID uint64) ([]models.UserPosition, error) {
	return s.repo.ListPositionsByStream(ctx, streamID)
}

// VaultBalance returns the lamports custodied for a stream
func (s *MarketService) VaultBalance(ctx context.Context, streamID uint64) (uint64, error) {
	return s.escrow.Balance(ctx, s.db, streamID)
}

// ListExpiredStreams returns active streams whose trading window has closed
// but whose authority has not declared a winner yet.
func (s *MarketService) ListExpiredStreams(ctx context.Context, limit int) ([]models.Stream, error) {
	return s.repo.ListExpiredActiveStreams(ctx, s.clock.Now(), limit)
}

// VaultEntries returns the custody journal of a stream oldest first
func (s *MarketService) VaultEntries(ctx context.Context, streamID uint64) ([]models.VaultEntry, error) {
	if _, err := s.repo.GetStream(ctx, streamID); err != nil {
		return nil, err
	}
	return escrow.Entries(ctx, s.db, streamID)
}

// ListEvents returns logged market events newest first
func (s *MarketService) ListEvents(ctx context.Context, f events.Filter) ([]models.EventLog, error) {
	return events.List(ctx, s.db, f)
}

// Quote prices a trade against the current reserves without executing it. It
// applies the same trading gate as Buy and Sell.
func (s *MarketService) Quote(ctx context.Context, streamID uint64, team amm.Team, side string, amount uint64) (*models.QuoteResponse, error) {
	stream, err := s.repo.GetStream(ctx, streamID)
	if err != nil {
		return nil, err
	}
	state, err := stream.Lifecycle()
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanTrade(state, s.clock.Now()); err != nil {
		return nil, err
	}

	var trade amm.Trade
	switch side {
	case SideBuy:
		trade, err = amm.QuoteBuy(stream.Reserves(), team, amount)
	case SideSell:
		trade, err = amm.QuoteSell(stream.Reserves(), team, amount)
	default:
		return nil, apperr.ErrInvalidAmount
	}
	if err != nil {
		return nil, err
	}

	return &models.QuoteResponse{
		Trade:         trade,
		Side:          side,
		PriceBeforeUI: fixedpoint.ToDecimal(trade.PriceBefore),
		PriceAfterUI:  fixedpoint.ToDecimal(trade.PriceAfter),
	}, nil
}

// ToStreamResponse converts a Stream to its API response format
func (s *MarketService) ToStreamResponse(stream *models.Stream) (*models.StreamResponse, error) {
	priceA, priceB, err := stream.Reserves().Prices()
	if err != nil {
		return nil, err
	}
	return &models.StreamResponse{
		Stream:       *stream,
		IsActive:     stream.IsActive(),
		TeamAPrice:   priceA,
		TeamBPrice:   priceB,
		TeamAPriceUI: fixedpoint.ToDecimal(priceA),
		TeamBPriceUI: fixedpoint.ToDecimal(priceB),
		TotalPoolSOL: fixedpoint.Lamports(stream.TotalPool),
	}, nil
}
