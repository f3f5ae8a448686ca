package fixedpoint

import (
	"errors"
	"math"
	"testing"

	"stream-market/internal/apperr"
)

func TestAddSub(t *testing.T) {
	if v, err := Add(2, 3); err != nil || v != 5 {
		t.Fatalf("Add(2,3) = %d, %v", v, err)
	}
	if _, err := Add(math.MaxUint64, 1); !errors.Is(err, apperr.ErrMathOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
	if v, err := Sub(5, 5); err != nil || v != 0 {
		t.Fatalf("Sub(5,5) = %d, %v", v, err)
	}
	if _, err := Sub(1, 2); !errors.Is(err, apperr.ErrMathOverflow) {
		t.Errorf("expected underflow to be reported as overflow, got %v", err)
	}
}

func TestMul(t *testing.T) {
	if v, err := Mul(1<<32, 1<<31); err != nil || v != 1<<63 {
		t.Fatalf("Mul = %d, %v", v, err)
	}
	if _, err := Mul(1<<32, 1<<32); !errors.Is(err, apperr.ErrMathOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b, d uint64
		want    uint64
		wantErr error
	}{
		{"simple", 1000, 30, 100, 300, nil},
		{"floors", 10, 1, 3, 3, nil},
		{"wide intermediate", math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64, nil},
		{"result too wide", math.MaxUint64, 2, 1, 0, apperr.ErrMathOverflow},
		{"zero divisor", 1, 1, 0, 0, apperr.ErrMathOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.a, tt.b, tt.d)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMulDivSumWideDivisor(t *testing.T) {
	// c1 + c2 overflows uint64 but the quotient is still representable.
	got, err := MulDivSum(math.MaxUint64, 4, math.MaxUint64, math.MaxUint64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestToDecimal(t *testing.T) {
	if got := ToDecimal(1_438_848_920).String(); got != "1.43884892" {
		t.Errorf("got %s", got)
	}
	if got := ToDecimal(Precision).String(); got != "1" {
		t.Errorf("got %s", got)
	}
}
