package escrow

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"gorm.io/gorm"

	"stream-market/internal/apperr"
	"stream-market/internal/database"
)

const (
	controller = "Ctrl111111111111111111111111111111111111111"
	alice      = "A1ice11111111111111111111111111111111111111"
)

var programID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

func TestVaultPDAIsDeterministic(t *testing.T) {
	a, bumpA, err := VaultPDA(programID, 42)
	if err != nil {
		t.Fatalf("VaultPDA: %v", err)
	}
	b, bumpB, err := VaultPDA(programID, 42)
	if err != nil {
		t.Fatalf("VaultPDA: %v", err)
	}
	if !a.Equals(b) || bumpA != bumpB {
		t.Errorf("derivation not stable: %s/%d vs %s/%d", a, bumpA, b, bumpB)
	}

	other, _, err := VaultPDA(programID, 43)
	if err != nil {
		t.Fatalf("VaultPDA: %v", err)
	}
	if a.Equals(other) {
		t.Error("different streams share a vault address")
	}

	stream, _, err := StreamPDA(programID, 42)
	if err != nil {
		t.Fatalf("StreamPDA: %v", err)
	}
	if a.Equals(stream) {
		t.Error("vault and stream addresses collide")
	}
}

func TestPositionAddress(t *testing.T) {
	ledger := NewLedger(programID, controller)
	user := solana.NewWallet().PublicKey().String()

	a, err := ledger.PositionAddress(7, user)
	if err != nil {
		t.Fatalf("PositionAddress: %v", err)
	}
	b, _ := ledger.PositionAddress(8, user)
	if a == b {
		t.Error("positions in different streams share an address")
	}
	if _, err := ledger.PositionAddress(7, "not a key"); err == nil {
		t.Error("expected an error for a malformed user address")
	}
}

func TestDebitCreditDrain(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	ledger := NewLedger(programID, controller)

	if _, err := Fund(ctx, db, alice, 1_000); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		vault, err := ledger.Open(ctx, tx, 1)
		if err != nil {
			return err
		}
		want, _ := ledger.VaultAddress(1)
		if vault.Address != want {
			t.Errorf("vault address = %s, want %s", vault.Address, want)
		}
		if err := ledger.Debit(ctx, tx, 1, alice, 600); err != nil {
			return err
		}
		return ledger.Credit(ctx, tx, 1, alice, 100)
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	if got, _ := WalletBalance(ctx, db, alice); got != 500 {
		t.Errorf("wallet = %d, want 500", got)
	}
	if got, _ := ledger.Balance(ctx, db, 1); got != 500 {
		t.Errorf("vault = %d, want 500", got)
	}

	var drained uint64
	err = db.Transaction(func(tx *gorm.DB) error {
		drained, err = ledger.DrainAll(ctx, tx, 1, controller)
		return err
	})
	if err != nil {
		t.Fatalf("DrainAll: %v", err)
	}
	if drained != 500 {
		t.Errorf("drained = %d, want 500", drained)
	}
	if got, _ := WalletBalance(ctx, db, controller); got != 500 {
		t.Errorf("controller wallet = %d, want 500", got)
	}

	entries, err := Entries(ctx, db, 1)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[2].BalanceAfter != 0 {
		t.Errorf("balance after drain = %d", entries[2].BalanceAfter)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)
	ledger := NewLedger(programID, controller)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.Open(ctx, tx, 7); err != nil {
			return err
		}
		return ledger.Debit(ctx, tx, 7, alice, 1)
	})
	if !errors.Is(err, apperr.ErrInsufficientFunds) {
		t.Fatalf("unknown wallet: got %v", err)
	}

	if _, err := Fund(ctx, db, alice, 10); err != nil {
		t.Fatalf("Fund: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.Open(ctx, tx, 7); err != nil {
			return err
		}
		return ledger.Debit(ctx, tx, 7, alice, 11)
	})
	if !errors.Is(err, apperr.ErrInsufficientFunds) {
		t.Fatalf("short wallet: got %v", err)
	}
	if got, _ := WalletBalance(ctx, db, alice); got != 10 {
		t.Errorf("wallet = %d, want 10 after rollback", got)
	}
}

func TestForeignControllerRejected(t *testing.T) {
	ctx := context.Background()
	db := database.OpenTest(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := NewLedger(programID, controller).Open(ctx, tx, 3)
		return err
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	intruder := NewLedger(programID, "someone-else")
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := intruder.DrainAll(ctx, tx, 3, "someone-else")
		return err
	})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("got %v, want Unauthorized", err)
	}
}

func TestFundRejectsZero(t *testing.T) {
	db := database.OpenTest(t)
	if _, err := Fund(context.Background(), db, alice, 0); !errors.Is(err, apperr.ErrInvalidAmount) {
		t.Errorf("got %v", err)
	}
}
