// Package lifecycle decides which operations a stream admits at a given time.
//
// A stream moves Uninitialized -> Active -> Ended and never back. The state is
// a tagged value so an ended stream always carries its winner and an active
// stream always carries its end time.
package lifecycle

import (
	"math"

	"stream-market/internal/amm"
	"stream-market/internal/apperr"
)

// State is one of Uninitialized, Active or Ended.
type State interface {
	isState()
}

// Uninitialized is the state of a stream id that has never been created.
type Uninitialized struct{}

// Active accepts trades until EndTime (unix seconds, exclusive).
type Active struct {
	EndTime int64
}

// Ended is terminal. Winner is always TeamA or TeamB.
type Ended struct {
	Winner amm.Team
}

func (Uninitialized) isState() {}
func (Active) isState()        {}
func (Ended) isState()         {}

// Restore rebuilds the state from persisted columns and rejects rows that no
// valid transition could have produced.
func Restore(ended bool, endTime int64, winner amm.Team) (State, error) {
	if ended {
		if !winner.Valid() {
			return nil, apperr.ErrCorruptState
		}
		return Ended{Winner: winner}, nil
	}
	if winner != amm.TeamNone {
		return nil, apperr.ErrCorruptState
	}
	return Active{EndTime: endTime}, nil
}

// Start opens a new stream lasting duration seconds from now.
func Start(state State, now, duration int64) (Active, error) {
	if _, ok := state.(Uninitialized); !ok {
		return Active{}, apperr.ErrStreamExists
	}
	if duration <= 0 {
		return Active{}, apperr.ErrInvalidDuration
	}
	if now > math.MaxInt64-duration {
		return Active{}, apperr.ErrMathOverflow
	}
	return Active{EndTime: now + duration}, nil
}

// CanTrade admits buys and sells strictly before the end time.
func CanTrade(state State, now int64) error {
	active, ok := state.(Active)
	if !ok {
		return apperr.ErrStreamNotActive
	}
	if now >= active.EndTime {
		return apperr.ErrStreamEnded
	}
	return nil
}

// End validates a resolution and returns the terminal state. Checks run in a
// fixed order so the reported error is deterministic.
func End(state State, caller, authority string, now int64, winner amm.Team) (Ended, error) {
	active, ok := state.(Active)
	if !ok {
		return Ended{}, apperr.ErrStreamNotActive
	}
	if caller != authority {
		return Ended{}, apperr.ErrUnauthorized
	}
	if now < active.EndTime {
		return Ended{}, apperr.ErrStreamNotEnded
	}
	if !winner.Valid() {
		return Ended{}, apperr.ErrInvalidTeam
	}
	return Ended{Winner: winner}, nil
}

// CanClaim returns the resolved state when winnings may be redeemed.
func CanClaim(state State) (Ended, error) {
	ended, ok := state.(Ended)
	if !ok {
		return Ended{}, apperr.ErrStreamStillActive
	}
	if !ended.Winner.Valid() {
		return Ended{}, apperr.ErrNoWinnerDeclared
	}
	return ended, nil
}

// CanEmergencyWithdraw admits the authority once the stream is no longer
// active.
func CanEmergencyWithdraw(state State, caller, authority string) error {
	if caller != authority {
		return apperr.ErrUnauthorized
	}
	if _, ok := state.(Active); ok {
		return apperr.ErrStreamStillActive
	}
	return nil
}
