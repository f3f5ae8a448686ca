package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"stream-market/internal/amm"
	"stream-market/internal/apperr"
	"stream-market/internal/clock"
	"stream-market/internal/escrow"
	"stream-market/internal/events"
	"stream-market/internal/fixedpoint"
	"stream-market/internal/lifecycle"
	"stream-market/internal/lock"
	"stream-market/internal/metrics"
	"stream-market/internal/models"
	"stream-market/internal/repository"
)

const (
	MaxNameLength = 32
	MaxLinkLength = 256
)

// MarketService runs the stream operations. Every mutating call holds the
// stream's lock and runs in a single transaction: either every ledger, escrow
// and event-log write commits, or none does.
type MarketService struct {
	db        *gorm.DB
	repo      *repository.Repository
	escrow    escrow.Escrow
	locker    lock.Locker
	clock     clock.Clock
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

type Option func(*MarketService)

func WithLocker(l lock.Locker) Option {
	return func(s *MarketService) { s.locker = l }
}

func WithClock(c clock.Clock) Option {
	return func(s *MarketService) { s.clock = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *MarketService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *MarketService) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *MarketService) { s.log = l }
}

// NewMarketService creates a new market service
func NewMarketService(db *gorm.DB, esc escrow.Escrow, opts ...Option) *MarketService {
	s := &MarketService{
		db:        db,
		repo:      repository.NewRepository(db),
		escrow:    esc,
		locker:    lock.NewLocalLocker(),
		clock:     clock.System{},
		publisher: events.NopPublisher{},
		metrics:   metrics.NewNop(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// operation is the transactional body of a mutating call. It returns the event
// to record and the lamports it moved.
type operation func(tx *gorm.DB, repo *repository.Repository, now int64) (events.Event, uint64, error)

func (s *MarketService) execute(ctx context.Context, op string, streamID uint64, fn operation) error {
	start := time.Now()
	defer func() {
		s.metrics.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	unlock, err := s.locker.Lock(ctx, lock.StreamKey(streamID))
	if err != nil {
		s.observe(op, err)
		return fmt.Errorf("%s: acquire lock: %w", op, err)
	}
	defer unlock()

	now := s.clock.Now()

	var (
		row    *models.EventLog
		volume uint64
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		evt, moved, err := fn(tx, s.repo.WithTx(tx), now)
		if err != nil {
			return err
		}
		volume = moved
		row, err = events.Record(ctx, tx, evt)
		return err
	})
	s.observe(op, err)
	if err != nil {
		s.log.Debug().Err(err).Str("op", op).Uint64("stream_id", streamID).Msg("operation rejected")
		return err
	}

	if volume > 0 {
		s.metrics.Volume.WithLabelValues(op).Add(float64(volume))
	}
	if err := s.publisher.Publish(ctx, row); err != nil {
		s.log.Warn().Err(err).Str("event", row.EventName).Uint64("stream_id", streamID).Msg("event publish failed")
	}
	return nil
}

func (s *MarketService) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if code, ok := apperr.CodeOf(err); ok {
			result = code.Name()
		}
	}
	s.metrics.Operations.WithLabelValues(op, result).Inc()
}

// ============================================================================
// INITIALIZE
// ============================================================================

// InitializeParams describes a new stream
type InitializeParams struct {
	StreamID         uint64
	TeamAName        string
	TeamBName        string
	InitialLiquidity uint64
	Duration         int64
	StreamLink       string
}

// Initialize opens a stream owned by caller with reserves split evenly from
// the initial liquidity, so both teams start at price 1.
func (s *MarketService) Initialize(ctx context.Context, caller string, p InitializeParams) (*models.Stream, error) {
	if len(p.TeamAName) > MaxNameLength || len(p.TeamBName) > MaxNameLength {
		return nil, apperr.ErrNameTooLong
	}
	if len(p.StreamLink) > MaxLinkLength {
		return nil, apperr.ErrLinkTooLong
	}
	if p.InitialLiquidity == 0 || p.InitialLiquidity%2 != 0 {
		return nil, apperr.ErrInvalidPrice
	}
	if p.Duration <= 0 {
		return nil, apperr.ErrInvalidDuration
	}

	var stream *models.Stream
	err := s.execute(ctx, "initialize", p.StreamID, func(tx *gorm.DB, repo *repository.Repository, now int64) (events.Event, uint64, error) {
		exists, err := repo.StreamExists(ctx, p.StreamID)
		if err != nil {
			return nil, 0, err
		}
		var state lifecycle.State = lifecycle.Uninitialized{}
		if exists {
			state = lifecycle.Active{}
		}
		active, err := lifecycle.Start(state, now, p.Duration)
		if err != nil {
			return nil, 0, err
		}

		half := p.InitialLiquidity / 2
		price, err := amm.Price(half, half)
		if err != nil {
			return nil, 0, err
		}

		vault, err := s.escrow.Open(ctx, tx, p.StreamID)
		if err != nil {
			return nil, 0, err
		}

		stream = &models.Stream{
			StreamID:         p.StreamID,
			Authority:        caller,
			TeamAName:        p.TeamAName,
			TeamBName:        p.TeamBName,
			TeamAReserve:     half,
			TeamBReserve:     half,
			InitialLiquidity: p.InitialLiquidity,
			StartTime:        now,
			EndTime:          active.EndTime,
			Status:           models.StreamStatusActive,
			WinningTeam:      amm.TeamNone,
			StreamLink:       p.StreamLink,
			VaultAddress:     vault.Address,
		}
		if err := repo.CreateStream(ctx, stream); err != nil {
			return nil, 0, fmt.Errorf("create stream: %w", err)
		}

		return events.StreamInitialized{
			StreamID:         stream.StreamID,
			Authority:        caller,
			TeamAName:        stream.TeamAName,
			TeamBName:        stream.TeamBName,
			InitialLiquidity: stream.InitialLiquidity,
			InitialPrice:     price,
			EndTime:          stream.EndTime,
			StreamLink:       stream.StreamLink,
		}, 0, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("stream_id", stream.StreamID).
		Str("authority", caller).
		Uint64("initial_liquidity", stream.InitialLiquidity).
		Int64("end_time", stream.EndTime).
		Msg("stream initialized")
	return stream, nil
}

// ============================================================================
// TRADING
// ============================================================================

// TradeResult is the committed outcome of a buy or sell
type TradeResult struct {
	Stream   *models.Stream
	Position *models.UserPosition
	Trade    amm.Trade
}

// loadTradable locks a stream and checks that it accepts trades at now.
func loadTradable(ctx context.Context, repo *repository.Repository, streamID uint64, now int64) (*models.Stream, error) {
	stream, err := repo.GetStreamForUpdate(ctx, streamID)
	if err != nil {
		return nil, err
	}
	state, err := stream.Lifecycle()
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanTrade(state, now); err != nil {
		return nil, err
	}
	return stream, nil
}

// Buy spends solAmount lamports from caller's wallet on shares of team.
func (s *MarketService) Buy(ctx context.Context, caller string, streamID uint64, team amm.Team, solAmount uint64) (*TradeResult, error) {
	var result TradeResult
	err := s.execute(ctx, "buy", streamID, func(tx *gorm.DB, repo *repository.Repository, now int64) (events.Event, uint64, error) {
		stream, err := loadTradable(ctx, repo, streamID, now)
		if err != nil {
			return nil, 0, err
		}

		trade, err := amm.QuoteBuy(stream.Reserves(), team, solAmount)
		if err != nil {
			return nil, 0, err
		}
		sold, err := fixedpoint.Add(stream.SharesSold(team), trade.AmountOut)
		if err != nil {
			return nil, 0, err
		}
		pool, err := fixedpoint.Add(stream.TotalPool, solAmount)
		if err != nil {
			return nil, 0, err
		}

		position, existed, err := repo.FindOrNewPosition(ctx, streamID, caller)
		if err != nil {
			return nil, 0, err
		}
		shares, err := fixedpoint.Add(position.Shares(team), trade.AmountOut)
		if err != nil {
			return nil, 0, err
		}
		invested, err := fixedpoint.Add(position.TotalInvested, solAmount)
		if err != nil {
			return nil, 0, err
		}

		if err := s.escrow.Debit(ctx, tx, streamID, caller, solAmount); err != nil {
			return nil, 0, err
		}

		stream.SetReserves(trade.After)
		stream.SetSharesSold(team, sold)
		stream.TotalPool = pool
		if err := repo.SaveStream(ctx, stream); err != nil {
			return nil, 0, fmt.Errorf("save stream: %w", err)
		}

		position.SetShares(team, shares)
		position.TotalInvested = invested
		if existed {
			err = repo.SavePosition(ctx, position)
		} else {
			err = repo.CreatePosition(ctx, position)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("save position: %w", err)
		}

		result = TradeResult{Stream: stream, Position: position, Trade: trade}
		before, after := trade.TeamReserves()
		return events.SharesPurchased{
			StreamID:          streamID,
			User:              caller,
			TeamID:            team,
			SolSpent:          solAmount,
			SharesReceived:    trade.AmountOut,
			PriceBefore:       trade.PriceBefore,
			PriceAfter:        trade.PriceAfter,
			ReserveTeamBefore: before,
			ReserveTeamAfter:  after,
		}, solAmount, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("stream_id", streamID).
		Str("user", caller).
		Stringer("team", team).
		Uint64("sol_spent", solAmount).
		Uint64("shares", result.Trade.AmountOut).
		Msg("shares purchased")
	return &result, nil
}

// Sell redeems sharesAmount shares of team back into caller's wallet.
func (s *MarketService) Sell(ctx context.Context, caller string, streamID uint64, team amm.Team, sharesAmount uint64) (*TradeResult, error) {
	var result TradeResult
	err := s.execute(ctx, "sell", streamID, func(tx *gorm.DB, repo *repository.Repository, now int64) (events.Event, uint64, error) {
		stream, err := loadTradable(ctx, repo, streamID, now)
		if err != nil {
			return nil, 0, err
		}
		if !team.Valid() {
			return nil, 0, apperr.ErrInvalidTeam
		}
		if sharesAmount == 0 {
			return nil, 0, apperr.ErrInvalidAmount
		}

		position, err := repo.FindPosition(ctx, streamID, caller)
		if errors.Is(err, apperr.ErrPositionNotFound) {
			return nil, 0, apperr.ErrInsufficientShares
		}
		if err != nil {
			return nil, 0, err
		}
		if position.User != caller {
			return nil, 0, apperr.ErrUnauthorized
		}
		held := position.Shares(team)
		if held < sharesAmount {
			return nil, 0, apperr.ErrInsufficientShares
		}

		trade, err := amm.QuoteSell(stream.Reserves(), team, sharesAmount)
		if err != nil {
			return nil, 0, err
		}
		sold, err := fixedpoint.Sub(stream.SharesSold(team), sharesAmount)
		if err != nil {
			return nil, 0, err
		}
		pool, err := fixedpoint.Sub(stream.TotalPool, trade.AmountOut)
		if err != nil {
			return nil, 0, err
		}
		invested, err := fixedpoint.Sub(position.TotalInvested, trade.AmountOut)
		if err != nil {
			return nil, 0, err
		}

		if err := s.escrow.Credit(ctx, tx, streamID, caller, trade.AmountOut); err != nil {
			return nil, 0, err
		}

		stream.SetReserves(trade.After)
		stream.SetSharesSold(team, sold)
		stream.TotalPool = pool
		if err := repo.SaveStream(ctx, stream); err != nil {
			return nil, 0, fmt.Errorf("save stream: %w", err)
		}

		position.SetShares(team, held-sharesAmount)
		position.TotalInvested = invested
		if err := repo.SavePosition(ctx, position); err != nil {
			return nil, 0, fmt.Errorf("save position: %w", err)
		}

		result = TradeResult{Stream: stream, Position: position, Trade: trade}
		before, after := trade.TeamReserves()
		return events.SharesSold{
			StreamID:          streamID,
			User:              caller,
			TeamID:            team,
			SharesSold:        sharesAmount,
			SolReceived:       trade.AmountOut,
			PriceBefore:       trade.PriceBefore,
			PriceAfter:        trade.PriceAfter,
			ReserveTeamBefore: before,
			ReserveTeamAfter:  after,
		}, trade.AmountOut, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint64("stream_id", streamID).
		Str("user", caller).
		Stringer("team", team).
		Uint64("shares", sharesAmount).
		Uint64("sol_received", result.Trade.AmountOut).
		Msg("shares sold")
	return &result, nil
}
