// Package apperr defines the failure codes returned by the stream market engine.
//
// Every code is a comparable value implementing error, so callers can wrap them
// with fmt.Errorf("...: %w", code) and still match with errors.Is.
package apperr

import "errors"

// Code identifies a single engine failure.
type Code int

const (
	// Input validation
	ErrInvalidTeam Code = iota + 1
	ErrInvalidAmount
	ErrInvalidPrice
	ErrInvalidDuration
	ErrNameTooLong
	ErrLinkTooLong

	// Authorization
	ErrUnauthorized

	// Lifecycle
	ErrStreamNotActive
	ErrStreamEnded
	ErrStreamNotEnded
	ErrStreamStillActive
	ErrNoWinnerDeclared

	// Ledger
	ErrInsufficientShares
	ErrNoWinningShares
	ErrAlreadyClaimed
	ErrNoPayout
	ErrInsufficientFunds

	// Arithmetic
	ErrMathOverflow

	// Storage
	ErrStreamNotFound
	ErrStreamExists
	ErrPositionNotFound
	ErrCorruptState
)

// Kind groups codes by the class of failure they represent.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindLifecycle
	KindLedger
	KindArithmetic
	KindNotFound
	KindConflict
	KindInternal
)

type info struct {
	name string
	msg  string
	kind Kind
}

var codes = map[Code]info{
	ErrInvalidTeam:        {"InvalidTeam", "invalid team id", KindValidation},
	ErrInvalidAmount:      {"InvalidAmount", "invalid amount", KindValidation},
	ErrInvalidPrice:       {"InvalidPrice", "invalid price", KindValidation},
	ErrInvalidDuration:    {"InvalidDuration", "invalid duration", KindValidation},
	ErrNameTooLong:        {"NameTooLong", "name too long (max 32 bytes)", KindValidation},
	ErrLinkTooLong:        {"LinkTooLong", "stream link too long (max 256 bytes)", KindValidation},
	ErrUnauthorized:       {"Unauthorized", "unauthorized", KindAuthorization},
	ErrStreamNotActive:    {"StreamNotActive", "stream is not active", KindLifecycle},
	ErrStreamEnded:        {"StreamEnded", "stream has ended", KindLifecycle},
	ErrStreamNotEnded:     {"StreamNotEnded", "stream has not ended yet", KindLifecycle},
	ErrStreamStillActive:  {"StreamStillActive", "stream is still active", KindLifecycle},
	ErrNoWinnerDeclared:   {"NoWinnerDeclared", "no winner declared yet", KindLifecycle},
	ErrInsufficientShares: {"InsufficientShares", "insufficient shares to sell", KindLedger},
	ErrNoWinningShares:    {"NoWinningShares", "no winning shares", KindLedger},
	ErrAlreadyClaimed:     {"AlreadyClaimed", "already claimed winnings", KindLedger},
	ErrNoPayout:           {"NoPayout", "no payout available", KindLedger},
	ErrInsufficientFunds:  {"InsufficientFunds", "insufficient funds", KindLedger},
	ErrMathOverflow:       {"MathOverflow", "math overflow", KindArithmetic},
	ErrStreamNotFound:     {"StreamNotFound", "stream not found", KindNotFound},
	ErrStreamExists:       {"StreamExists", "stream already exists", KindConflict},
	ErrPositionNotFound:   {"PositionNotFound", "position not found", KindNotFound},
	ErrCorruptState:       {"CorruptState", "stream state is inconsistent", KindInternal},
}

func (c Code) Error() string {
	if i, ok := codes[c]; ok {
		return i.msg
	}
	return "unknown error"
}

// Name returns the stable identifier of the code, e.g. "AlreadyClaimed".
func (c Code) Name() string {
	if i, ok := codes[c]; ok {
		return i.name
	}
	return "Unknown"
}

func (c Code) Kind() Kind {
	if i, ok := codes[c]; ok {
		return i.kind
	}
	return KindInternal
}

// CodeOf extracts the first Code in err's chain.
func CodeOf(err error) (Code, bool) {
	var c Code
	if errors.As(err, &c) {
		return c, true
	}
	return 0, false
}
