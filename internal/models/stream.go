package models

import (
	"time"

	"stream-market/internal/amm"
	"stream-market/internal/apperr"
	"stream-market/internal/lifecycle"
)

// Stream status constants
type StreamStatus string

const (
	StreamStatusActive StreamStatus = "ACTIVE"
	StreamStatusEnded  StreamStatus = "ENDED"
)

// Stream is one two-sided market and its virtual liquidity pool.
//
// Amount columns hold lamports and shares. They are unsigned in Go and stored
// as BIGINT, so values must stay below 2^63 to round-trip through SQL.
type Stream struct {
	StreamID         uint64       `gorm:"primaryKey;autoIncrement:false" json:"stream_id"`
	Authority        string       `gorm:"size:64;not null;index" json:"authority"`
	TeamAName        string       `gorm:"size:32;not null" json:"team_a_name"`
	TeamBName        string       `gorm:"size:32;not null" json:"team_b_name"`
	TeamAReserve     uint64       `gorm:"not null" json:"team_a_reserve"`
	TeamBReserve     uint64       `gorm:"not null" json:"team_b_reserve"`
	TeamASharesSold  uint64       `gorm:"not null;default:0" json:"team_a_shares_sold"`
	TeamBSharesSold  uint64       `gorm:"not null;default:0" json:"team_b_shares_sold"`
	TotalPool        uint64       `gorm:"not null;default:0" json:"total_pool"`
	SettledPool      uint64       `gorm:"not null;default:0" json:"settled_pool"` // total_pool frozen at resolution
	InitialLiquidity uint64       `gorm:"not null" json:"initial_liquidity"`
	StartTime        int64        `gorm:"not null" json:"start_time"`
	EndTime          int64        `gorm:"not null;index" json:"end_time"`
	Status           StreamStatus `gorm:"size:16;not null;default:ACTIVE;index" json:"status"`
	WinningTeam      amm.Team     `gorm:"not null;default:0" json:"winning_team"`
	StreamLink       string       `gorm:"size:256" json:"stream_link"`
	VaultAddress     string       `gorm:"size:64" json:"vault_address"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (Stream) TableName() string {
	return "streams"
}

// Lifecycle decodes the persisted columns into a lifecycle state.
func (s *Stream) Lifecycle() (lifecycle.State, error) {
	switch s.Status {
	case StreamStatusActive:
		return lifecycle.Restore(false, s.EndTime, s.WinningTeam)
	case StreamStatusEnded:
		return lifecycle.Restore(true, s.EndTime, s.WinningTeam)
	default:
		return nil, apperr.ErrCorruptState
	}
}

// ApplyEnded records a resolution produced by lifecycle.End.
func (s *Stream) ApplyEnded(ended lifecycle.Ended) {
	s.Status = StreamStatusEnded
	s.WinningTeam = ended.Winner
	s.SettledPool = s.TotalPool
}

func (s *Stream) IsActive() bool {
	return s.Status == StreamStatusActive
}

func (s *Stream) Reserves() amm.Reserves {
	return amm.Reserves{A: s.TeamAReserve, B: s.TeamBReserve}
}

func (s *Stream) SetReserves(r amm.Reserves) {
	s.TeamAReserve = r.A
	s.TeamBReserve = r.B
}

// SharesSold returns the outstanding shares of team.
func (s *Stream) SharesSold(team amm.Team) uint64 {
	if team == amm.TeamA {
		return s.TeamASharesSold
	}
	return s.TeamBSharesSold
}

func (s *Stream) SetSharesSold(team amm.Team, v uint64) {
	if team == amm.TeamA {
		s.TeamASharesSold = v
		return
	}
	s.TeamBSharesSold = v
}
