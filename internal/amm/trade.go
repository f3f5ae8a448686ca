package amm

import (
	"stream-market/internal/apperr"
	"stream-market/internal/fixedpoint"
)

// Reserves holds both virtual reserves of a stream.
type Reserves struct {
	A uint64 `json:"team_a_reserve"`
	B uint64 `json:"team_b_reserve"`
}

// Of returns (reserve of team, reserve of the opposite team).
func (r Reserves) Of(team Team) (uint64, uint64) {
	if team == TeamA {
		return r.A, r.B
	}
	return r.B, r.A
}

func (r Reserves) with(team Team, teamReserve, oppositeReserve uint64) Reserves {
	if team == TeamA {
		return Reserves{A: teamReserve, B: oppositeReserve}
	}
	return Reserves{A: oppositeReserve, B: teamReserve}
}

// Prices returns the spot price of each team.
func (r Reserves) Prices() (priceA, priceB uint64, err error) {
	if priceA, err = Price(r.A, r.B); err != nil {
		return 0, 0, err
	}
	if priceB, err = Price(r.B, r.A); err != nil {
		return 0, 0, err
	}
	return priceA, priceB, nil
}

// Trade is the priced outcome of a buy or sell, computed before anything is
// applied to a stream.
type Trade struct {
	Team        Team     `json:"team_id"`
	AmountIn    uint64   `json:"amount_in"`
	AmountOut   uint64   `json:"amount_out"`
	Before      Reserves `json:"reserves_before"`
	After       Reserves `json:"reserves_after"`
	PriceBefore uint64   `json:"price_before"`
	PriceAfter  uint64   `json:"price_after"`
}

// TeamReserves returns the traded team's reserve before and after the trade.
func (t Trade) TeamReserves() (before, after uint64) {
	before, _ = t.Before.Of(t.Team)
	after, _ = t.After.Of(t.Team)
	return before, after
}

// QuoteBuy prices spending solIn lamports on team.
func QuoteBuy(r Reserves, team Team, solIn uint64) (Trade, error) {
	if !team.Valid() {
		return Trade{}, apperr.ErrInvalidTeam
	}
	teamReserve, oppositeReserve := r.Of(team)

	priceBefore, err := Price(teamReserve, oppositeReserve)
	if err != nil {
		return Trade{}, err
	}
	shares, err := SharesOut(solIn, teamReserve, oppositeReserve)
	if err != nil {
		return Trade{}, err
	}

	// shares < teamReserve is guaranteed by SharesOut.
	newTeam := teamReserve - shares
	newOpposite, err := fixedpoint.Add(oppositeReserve, solIn)
	if err != nil {
		return Trade{}, err
	}
	priceAfter, err := Price(newTeam, newOpposite)
	if err != nil {
		return Trade{}, err
	}

	return Trade{
		Team:        team,
		AmountIn:    solIn,
		AmountOut:   shares,
		Before:      r,
		After:       r.with(team, newTeam, newOpposite),
		PriceBefore: priceBefore,
		PriceAfter:  priceAfter,
	}, nil
}

// QuoteSell prices redeeming sharesIn shares of team.
func QuoteSell(r Reserves, team Team, sharesIn uint64) (Trade, error) {
	if !team.Valid() {
		return Trade{}, apperr.ErrInvalidTeam
	}
	teamReserve, oppositeReserve := r.Of(team)

	priceBefore, err := Price(teamReserve, oppositeReserve)
	if err != nil {
		return Trade{}, err
	}
	sol, err := SolOut(sharesIn, teamReserve, oppositeReserve)
	if err != nil {
		return Trade{}, err
	}

	newTeam, err := fixedpoint.Add(teamReserve, sharesIn)
	if err != nil {
		return Trade{}, err
	}
	// sol < oppositeReserve is guaranteed by SolOut.
	newOpposite := oppositeReserve - sol
	priceAfter, err := Price(newTeam, newOpposite)
	if err != nil {
		return Trade{}, err
	}

	return Trade{
		Team:        team,
		AmountIn:    sharesIn,
		AmountOut:   sol,
		Before:      r,
		After:       r.with(team, newTeam, newOpposite),
		PriceBefore: priceBefore,
		PriceAfter:  priceAfter,
	}, nil
}
