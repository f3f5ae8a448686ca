package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"stream-market/internal/amm"
	"stream-market/internal/apperr"
	"stream-market/internal/events"
	"stream-market/internal/fixedpoint"
	"stream-market/internal/lifecycle"
	"stream-market/internal/models"
	"stream-market/internal/repository"
)

// End resolves a stream in favor of winner. Only the authority may end a
// stream, and only once its end time has passed.
func (s *MarketService) End(ctx context.Context, caller string, streamID uint64, winner amm.Team) (*models.Stream, error) {
	var stream *models.Stream
	err := s.execute(ctx, "end", streamID, func(tx *gorm.DB, repo *repository.Repository, now int64) (events.Event, uint64, error) {
		var err error
		stream, err = repo.GetStreamForUpdate(ctx, streamID)
		if err != nil {
			return nil, 0, err
		}
		state, err := stream.Lifecycle()
		if err != nil {
			return nil, 0, err
		}
		ended, err := lifecycle.End(state, caller, stream.Authority, now, winner)
		if err != nil {
			return nil, 0, err
		}

		priceA, priceB, err := stream.Reserves().Prices()
		if err != nil {
			return nil, 0, err
		}

		stream.ApplyEnded(ended)
		if err := repo.SaveStream(ctx, stream); err != nil {
			return nil, 0, fmt.Errorf("save stream: %w", err)
		}

		return events.StreamEnded{
			StreamID:        streamID,
			WinningTeam:     ended.Winner,
			TotalPool:       stream.TotalPool,
			TeamAShares:     stream.TeamASharesSold,
			TeamBShares:     stream.TeamBSharesSold,
			FinalTeamAPrice: priceA,
			FinalTeamBPrice: priceB,
		}, 0, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("stream_id", streamID).
		Stringer("winner", winner).
		Uint64("total_pool", stream.TotalPool).
		Msg("stream ended")
	return stream, nil
}

// Claim pays caller's share of the settled pool:
// floor(settled_pool * winning_shares / winning_shares_sold).
//
// The numerator uses the pool frozen at resolution so every claimant is paid
// pro rata regardless of claim order; total_pool keeps tracking what remains
// in custody.
func (s *MarketService) Claim(ctx context.Context, caller string, streamID uint64) (*models.ClaimResponse, error) {
	var result models.ClaimResponse
	err := s.execute(ctx, "claim", streamID, func(tx *gorm.DB, repo *repository.Repository, now int64) (events.Event, uint64, error) {
		stream, err := repo.GetStreamForUpdate(ctx, streamID)
		if err != nil {
			return nil, 0, err
		}
		state, err := stream.Lifecycle()
		if err != nil {
			return nil, 0, err
		}
		ended, err := lifecycle.CanClaim(state)
		if err != nil {
			return nil, 0, err
		}

		position, err := repo.FindPosition(ctx, streamID, caller)
		if errors.Is(err, apperr.ErrPositionNotFound) {
			return nil, 0, apperr.ErrNoWinningShares
		}
		if err != nil {
			return nil, 0, err
		}
		if position.HasClaimed {
			return nil, 0, apperr.ErrAlreadyClaimed
		}
		if position.User != caller {
			return nil, 0, apperr.ErrUnauthorized
		}

		shares := position.Shares(ended.Winner)
		if shares == 0 {
			return nil, 0, apperr.ErrNoWinningShares
		}
		payout, err := fixedpoint.MulDiv(stream.SettledPool, shares, stream.SharesSold(ended.Winner))
		if err != nil {
			return nil, 0, err
		}
		if payout == 0 {
			return nil, 0, apperr.ErrNoPayout
		}

		held, err := s.escrow.Balance(ctx, tx, streamID)
		if err != nil {
			return nil, 0, err
		}
		if held < payout {
			// The vault was drained by an emergency withdraw.
			return nil, 0, apperr.ErrNoPayout
		}
		remaining, err := fixedpoint.Sub(stream.TotalPool, payout)
		if err != nil {
			return nil, 0, err
		}

		if err := s.escrow.Credit(ctx, tx, streamID, caller, payout); err != nil {
			return nil, 0, err
		}

		stream.TotalPool = remaining
		if err := repo.SaveStream(ctx, stream); err != nil {
			return nil, 0, fmt.Errorf("save stream: %w", err)
		}
		position.HasClaimed = true
		position.ClaimedAmount = payout
		if err := repo.SavePosition(ctx, position); err != nil {
			return nil, 0, fmt.Errorf("save position: %w", err)
		}

		result = models.ClaimResponse{Position: *position, Payout: payout}
		return events.WinningsClaimed{
			StreamID:    streamID,
			User:        caller,
			WinningTeam: ended.Winner,
			Shares:      shares,
			Payout:      payout,
		}, payout, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("stream_id", streamID).
		Str("user", caller).
		Uint64("payout", result.Payout).
		Msg("winnings claimed")
	return &result, nil
}

// EmergencyWithdraw moves everything left in an ended stream's vault to the
// authority. Stream and position bookkeeping is left untouched, so winners who
// have not claimed yet will get NoPayout afterwards.
func (s *MarketService) EmergencyWithdraw(ctx context.Context, caller string, streamID uint64) (uint64, error) {
	var drained uint64
	err := s.execute(ctx, "emergency_withdraw", streamID, func(tx *gorm.DB, repo *repository.Repository, now int64) (events.Event, uint64, error) {
		stream, err := repo.GetStreamForUpdate(ctx, streamID)
		if err != nil {
			return nil, 0, err
		}
		state, err := stream.Lifecycle()
		if err != nil {
			return nil, 0, err
		}
		if err := lifecycle.CanEmergencyWithdraw(state, caller, stream.Authority); err != nil {
			return nil, 0, err
		}

		drained, err = s.escrow.DrainAll(ctx, tx, streamID, caller)
		if err != nil {
			return nil, 0, err
		}

		return events.EmergencyWithdrawn{
			StreamID:  streamID,
			Authority: caller,
			Amount:    drained,
		}, drained, nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Warn().
		Uint64("stream_id", streamID).
		Str("authority", caller).
		Uint64("amount", drained).
		Msg("vault drained by emergency withdraw")
	return drained, nil
}
