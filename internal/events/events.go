// Package events defines the payloads emitted by market operations and stores
// them in the event log.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"stream-market/internal/amm"
	"stream-market/internal/models"
)

// Event names
const (
	NameStreamInitialized  = "StreamInitialized"
	NameSharesPurchased    = "SharesPurchased"
	NameSharesSold         = "SharesSold"
	NameStreamEnded        = "StreamEnded"
	NameWinningsClaimed    = "WinningsClaimed"
	NameEmergencyWithdrawn = "EmergencyWithdrawn"
)

// Event is a payload produced by a successful operation.
type Event interface {
	Name() string
	Stream() uint64
}

type StreamInitialized struct {
	StreamID         uint64 `json:"stream_id"`
	Authority        string `json:"authority"`
	TeamAName        string `json:"team_a_name"`
	TeamBName        string `json:"team_b_name"`
	InitialLiquidity uint64 `json:"initial_liquidity"`
	InitialPrice     uint64 `json:"initial_price"`
	EndTime          int64  `json:"end_time"`
	StreamLink       string `json:"stream_link"`
}

type SharesPurchased struct {
	StreamID          uint64   `json:"stream_id"`
	User              string   `json:"user"`
	TeamID            amm.Team `json:"team_id"`
	SolSpent          uint64   `json:"sol_spent"`
	SharesReceived    uint64   `json:"shares_received"`
	PriceBefore       uint64   `json:"price_before"`
	PriceAfter        uint64   `json:"price_after"`
	ReserveTeamBefore uint64   `json:"reserve_team_before"`
	ReserveTeamAfter  uint64   `json:"reserve_team_after"`
}

type SharesSold struct {
	StreamID          uint64   `json:"stream_id"`
	User              string   `json:"user"`
	TeamID            amm.Team `json:"team_id"`
	SharesSold        uint64   `json:"shares_sold"`
	SolReceived       uint64   `json:"sol_received"`
	PriceBefore       uint64   `json:"price_before"`
	PriceAfter        uint64   `json:"price_after"`
	ReserveTeamBefore uint64   `json:"reserve_team_before"`
	ReserveTeamAfter  uint64   `json:"reserve_team_after"`
}

type StreamEnded struct {
	StreamID        uint64   `json:"stream_id"`
	WinningTeam     amm.Team `json:"winning_team"`
	TotalPool       uint64   `json:"total_pool"`
	TeamAShares     uint64   `json:"team_a_shares"`
	TeamBShares     uint64   `json:"team_b_shares"`
	FinalTeamAPrice uint64   `json:"final_team_a_price"`
	FinalTeamBPrice uint64   `json:"final_team_b_price"`
}

type WinningsClaimed struct {
	StreamID    uint64   `json:"stream_id"`
	User        string   `json:"user"`
	WinningTeam amm.Team `json:"winning_team"`
	Shares      uint64   `json:"shares"`
	Payout      uint64   `json:"payout"`
}

type EmergencyWithdrawn struct {
	StreamID  uint64 `json:"stream_id"`
	Authority string `json:"authority"`
	Amount    uint64 `json:"amount"`
}

func (StreamInitialized) Name() string  { return NameStreamInitialized }
func (SharesPurchased) Name() string    { return NameSharesPurchased }
func (SharesSold) Name() string         { return NameSharesSold }
func (StreamEnded) Name() string        { return NameStreamEnded }
func (WinningsClaimed) Name() string    { return NameWinningsClaimed }
func (EmergencyWithdrawn) Name() string { return NameEmergencyWithdrawn }

func (e StreamInitialized) Stream() uint64  { return e.StreamID }
func (e SharesPurchased) Stream() uint64    { return e.StreamID }
func (e SharesSold) Stream() uint64         { return e.StreamID }
func (e StreamEnded) Stream() uint64        { return e.StreamID }
func (e WinningsClaimed) Stream() uint64    { return e.StreamID }
func (e EmergencyWithdrawn) Stream() uint64 { return e.StreamID }

// Record appends evt to the event log inside tx.
func Record(ctx context.Context, tx *gorm.DB, evt Event) (*models.EventLog, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", evt.Name(), err)
	}
	row := &models.EventLog{
		StreamID:  evt.Stream(),
		EventName: evt.Name(),
		Data:      string(data),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("record %s: %w", evt.Name(), err)
	}
	return row, nil
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Name     string
	StreamID uint64
	Limit    int
}

// List returns logged events newest first.
func List(ctx context.Context, db *gorm.DB, f Filter) ([]models.EventLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := db.WithContext(ctx).Model(&models.EventLog{})
	if f.Name != "" {
		query = query.Where("event_name = ?", f.Name)
	}
	if f.StreamID != 0 {
		query = query.Where("stream_id = ?", f.StreamID)
	}

	var logs []models.EventLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return logs, nil
}
