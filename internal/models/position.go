package models

import (
	"time"

	"stream-market/internal/amm"
)

// UserPosition holds one user's shares in one stream. It is keyed by
// (stream_id, user_address) and never caches market state.
type UserPosition struct {
	StreamID      uint64    `gorm:"primaryKey;autoIncrement:false" json:"stream_id"`
	User          string    `gorm:"column:user_address;primaryKey;size:64;index" json:"user"`
	TeamAShares   uint64    `gorm:"not null;default:0" json:"team_a_shares"`
	TeamBShares   uint64    `gorm:"not null;default:0" json:"team_b_shares"`
	TotalInvested uint64    `gorm:"not null;default:0" json:"total_invested"`
	HasClaimed    bool      `gorm:"not null;default:false" json:"has_claimed"`
	ClaimedAmount uint64    `gorm:"not null;default:0" json:"claimed_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for UserPosition
func (UserPosition) TableName() string {
	return "user_positions"
}

func (p *UserPosition) Shares(team amm.Team) uint64 {
	if team == amm.TeamA {
		return p.TeamAShares
	}
	return p.TeamBShares
}

func (p *UserPosition) SetShares(team amm.Team, v uint64) {
	if team == amm.TeamA {
		p.TeamAShares = v
		return
	}
	p.TeamBShares = v
}
