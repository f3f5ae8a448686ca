package lifecycle

import (
	"errors"
	"math"
	"testing"

	"stream-market/internal/amm"
	"stream-market/internal/apperr"
)

const authority = "Auth1111111111111111111111111111111111111111"

func TestRestore(t *testing.T) {
	tests := []struct {
		name    string
		ended   bool
		winner  amm.Team
		want    State
		wantErr error
	}{
		{"active", false, amm.TeamNone, Active{EndTime: 100}, nil},
		{"ended A", true, amm.TeamA, Ended{Winner: amm.TeamA}, nil},
		{"ended without winner", true, amm.TeamNone, nil, apperr.ErrCorruptState},
		{"active with winner", false, amm.TeamB, nil, apperr.ErrCorruptState},
		{"ended with unknown team", true, amm.Team(7), nil, apperr.ErrCorruptState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Restore(tt.ended, 100, tt.winner)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestStart(t *testing.T) {
	got, err := Start(Uninitialized{}, 1_000, 3_600)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got.EndTime != 4_600 {
		t.Errorf("end time = %d", got.EndTime)
	}

	if _, err := Start(Active{EndTime: 5}, 1_000, 3_600); !errors.Is(err, apperr.ErrStreamExists) {
		t.Errorf("restart: got %v", err)
	}
	if _, err := Start(Uninitialized{}, 1_000, 0); !errors.Is(err, apperr.ErrInvalidDuration) {
		t.Errorf("zero duration: got %v", err)
	}
	if _, err := Start(Uninitialized{}, 1_000, -1); !errors.Is(err, apperr.ErrInvalidDuration) {
		t.Errorf("negative duration: got %v", err)
	}
	if _, err := Start(Uninitialized{}, 10, math.MaxInt64); !errors.Is(err, apperr.ErrMathOverflow) {
		t.Errorf("overflowing end: got %v", err)
	}
}

func TestCanTrade(t *testing.T) {
	tests := []struct {
		name  string
		state State
		now   int64
		want  error
	}{
		{"open", Active{EndTime: 100}, 99, nil},
		{"at end time", Active{EndTime: 100}, 100, apperr.ErrStreamEnded},
		{"ended", Ended{Winner: amm.TeamA}, 50, apperr.ErrStreamNotActive},
		{"uninitialized", Uninitialized{}, 50, apperr.ErrStreamNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CanTrade(tt.state, tt.now); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEnd(t *testing.T) {
	active := Active{EndTime: 100}

	tests := []struct {
		name   string
		state  State
		caller string
		now    int64
		winner amm.Team
		want   error
	}{
		{"resolves", active, authority, 100, amm.TeamB, nil},
		{"already ended", Ended{Winner: amm.TeamA}, authority, 200, amm.TeamB, apperr.ErrStreamNotActive},
		{"wrong caller", active, "someone", 200, amm.TeamA, apperr.ErrUnauthorized},
		{"too early", active, authority, 99, amm.TeamA, apperr.ErrStreamNotEnded},
		{"bad winner", active, authority, 100, amm.TeamNone, apperr.ErrInvalidTeam},
		{"not-active beats unauthorized", Ended{Winner: amm.TeamA}, "someone", 0, amm.TeamNone, apperr.ErrStreamNotActive},
		{"unauthorized beats too early", active, "someone", 0, amm.TeamNone, apperr.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := End(tt.state, tt.caller, authority, tt.now, tt.winner)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if err == nil && got.Winner != tt.winner {
				t.Errorf("winner = %v", got.Winner)
			}
		})
	}
}

func TestCanClaim(t *testing.T) {
	if _, err := CanClaim(Active{EndTime: 1}); !errors.Is(err, apperr.ErrStreamStillActive) {
		t.Errorf("active: got %v", err)
	}
	if _, err := CanClaim(Ended{}); !errors.Is(err, apperr.ErrNoWinnerDeclared) {
		t.Errorf("no winner: got %v", err)
	}
	got, err := CanClaim(Ended{Winner: amm.TeamB})
	if err != nil || got.Winner != amm.TeamB {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestCanEmergencyWithdraw(t *testing.T) {
	if err := CanEmergencyWithdraw(Ended{Winner: amm.TeamA}, "someone", authority); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("wrong caller: got %v", err)
	}
	if err := CanEmergencyWithdraw(Active{EndTime: 1}, authority, authority); !errors.Is(err, apperr.ErrStreamStillActive) {
		t.Errorf("active: got %v", err)
	}
	if err := CanEmergencyWithdraw(Ended{Winner: amm.TeamA}, authority, authority); err != nil {
		t.Errorf("ended: got %v", err)
	}
}
