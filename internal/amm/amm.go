// Package amm prices trades for a two-sided stream with a constant-product
// market maker.
//
// Reserves are virtual liquidity counters, not currency balances. Buying a
// team removes shares from that team's reserve and adds the SOL paid to the
// opposite reserve, so reserveTeam * reserveOpposite stays constant up to
// floor rounding. Every amount paid out is floored, which can only grow the
// product.
package amm

import (
	"github.com/holiman/uint256"

	"stream-market/internal/apperr"
	"stream-market/internal/fixedpoint"
)

// Team identifies one side of a stream. The zero value means undecided.
type Team uint8

const (
	TeamNone Team = 0
	TeamA    Team = 1
	TeamB    Team = 2
)

func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

// Opposite returns the other side. It must only be called on a valid team.
func (t Team) Opposite() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "none"
	}
}

// Price returns reserveOpposite * Precision / reserveTeam. A smaller team
// reserve (more demand) gives a higher price.
func Price(reserveTeam, reserveOpposite uint64) (uint64, error) {
	if reserveTeam == 0 {
		return 0, apperr.ErrInvalidPrice
	}
	return fixedpoint.MulDiv(reserveOpposite, fixedpoint.Precision, reserveTeam)
}

// SharesOut returns the shares issued for amountIn lamports:
// floor(amountIn * reserveTeam / (reserveOpposite + amountIn)).
func SharesOut(amountIn, reserveTeam, reserveOpposite uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, apperr.ErrInvalidAmount
	}
	if reserveTeam == 0 || reserveOpposite == 0 {
		return 0, apperr.ErrInvalidPrice
	}
	shares, err := fixedpoint.MulDivSum(amountIn, reserveTeam, reserveOpposite, amountIn)
	if err != nil {
		return 0, err
	}
	if shares == 0 || shares >= reserveTeam {
		return 0, apperr.ErrInvalidAmount
	}
	return shares, nil
}

// SolOut returns the lamports paid for redeeming sharesIn:
// floor(sharesIn * reserveOpposite / (reserveTeam + sharesIn)).
func SolOut(sharesIn, reserveTeam, reserveOpposite uint64) (uint64, error) {
	if sharesIn == 0 {
		return 0, apperr.ErrInvalidAmount
	}
	if reserveTeam == 0 || reserveOpposite == 0 {
		return 0, apperr.ErrInvalidPrice
	}
	sol, err := fixedpoint.MulDivSum(sharesIn, reserveOpposite, reserveTeam, sharesIn)
	if err != nil {
		return 0, err
	}
	if sol == 0 || sol >= reserveOpposite {
		return 0, apperr.ErrInvalidAmount
	}
	return sol, nil
}

// Invariant returns reserveA * reserveB at full width. It is used to verify
// trades, never to drive them.
func Invariant(reserveA, reserveB uint64) *uint256.Int {
	return fixedpoint.Mul256(reserveA, reserveB)
}
