package execution

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestCalculateNotionalCapResizes(t *testing.T) {
	q := NewQuantityCalculator(1.0, zerolog.Nop())

	// Risk budget 1000 / 2 per share = 500 shares, but 500*100 blows
	// through the 10% notional cap, so the size shrinks to 100.
	result := q.Calculate(100000, 100, 98, 100)
	if !result.Valid {
		t.Fatalf("expected valid sizing, got %q", result.Reason)
	}
	if result.Quantity != 100 {
		t.Errorf("expected quantity 100 after notional cap, got %d", result.Quantity)
	}
	if result.PositionValue != 10000 {
		t.Errorf("expected position value 10000, got %f", result.PositionValue)
	}
	if result.RiskAmount != 200 {
		t.Errorf("expected risk amount 200, got %f", result.RiskAmount)
	}
	if result.RiskPercent != 0.2 {
		t.Errorf("expected risk percent 0.2, got %f", result.RiskPercent)
	}
	if result.ConfidenceMult != 1.0 {
		t.Errorf("expected full confidence multiplier, got %f", result.ConfidenceMult)
	}
}

func TestCalculateConfidenceMultiplierFloor(t *testing.T) {
	q := NewQuantityCalculator(1.0, zerolog.Nop())

	// Confidence 20 maps below the floor, so the multiplier stays at 0.5.
	result := q.Calculate(100000, 100, 95, 20)
	if !result.Valid {
		t.Fatalf("expected valid sizing, got %q", result.Reason)
	}
	if result.ConfidenceMult != 0.5 {
		t.Errorf("expected multiplier floor 0.5, got %f", result.ConfidenceMult)
	}
	// 100000*1%*0.5 = 500 adjusted risk, 5 per share = 100 shares.
	if result.Quantity != 100 {
		t.Errorf("expected quantity 100, got %d", result.Quantity)
	}
}

func TestCalculateConfidenceScalesBudget(t *testing.T) {
	q := NewQuantityCalculator(1.0, zerolog.Nop())

	full := q.Calculate(100000, 20, 18, 100)
	half := q.Calculate(100000, 20, 18, 75)
	if !full.Valid || !half.Valid {
		t.Fatal("expected both sizings valid")
	}
	if full.Quantity != 500 || half.Quantity != 375 {
		t.Errorf("expected quantities 500 and 375, got %d and %d", full.Quantity, half.Quantity)
	}
	if half.ConfidenceMult != 0.75 {
		t.Errorf("expected multiplier 0.75, got %f", half.ConfidenceMult)
	}
}

func TestCalculateRejectsInvalidInputs(t *testing.T) {
	q := NewQuantityCalculator(1.0, zerolog.Nop())

	if result := q.Calculate(100000, 100, 100, 80); result.Valid {
		t.Error("zero risk per share should be rejected")
	}
	if result := q.Calculate(0, 100, 98, 80); result.Valid {
		t.Error("zero capital should be rejected")
	}
	if result := q.Calculate(100000, 0, -2, 80); result.Valid {
		t.Error("non-positive entry price should be rejected")
	}
}

func TestCalculateRejectsUnaffordableShare(t *testing.T) {
	q := NewQuantityCalculator(1.0, zerolog.Nop())

	// 10% notional of 5000 is 500, below one share at 600.
	result := q.Calculate(5000, 600, 590, 100)
	if result.Valid {
		t.Errorf("expected rejection when even one share breaks the cap, got %+v", result)
	}
}

func TestCalculateShortSide(t *testing.T) {
	q := NewQuantityCalculator(1.0, zerolog.Nop())

	// Stop above entry: risk per share still 2.
	result := q.Calculate(100000, 100, 102, 100)
	if !result.Valid {
		t.Fatalf("expected valid short sizing, got %q", result.Reason)
	}
	if result.Quantity != 100 {
		t.Errorf("expected quantity 100, got %d", result.Quantity)
	}
}
