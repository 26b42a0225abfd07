package portfolio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	insertErr  error
	nextID     int64
	openTrades []TradeRecord
	snapshots  []Snapshot
}

func (f *fakeStore) InsertTrade(_ context.Context, _ TradeRecord) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) UpdateTradeExit(_ context.Context, _ int64, _, _, _ float64, _ string) error {
	return nil
}

func (f *fakeStore) GetOpenTrades(_ context.Context, _ string) ([]TradeRecord, error) {
	return f.openTrades, nil
}

func (f *fakeStore) InsertSnapshot(_ context.Context, snapshot Snapshot) error {
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func TestLedgerInvariantHolds(t *testing.T) {
	s := NewState(100000, nil, zerolog.Nop())
	ctx := context.Background()

	if !s.AddPosition(ctx, "RELIANCE", PositionLong, 10, 2500, 2450, 2600) {
		t.Fatal("expected position to open")
	}
	if s.AvailableCapital() != 75000 {
		t.Errorf("expected 75000 available, got %f", s.AvailableCapital())
	}
	if s.TotalCapital() != 100000 {
		t.Errorf("flat mark should leave total at 100000, got %f", s.TotalCapital())
	}

	// Mark up 100: unrealized 1000, total follows.
	s.UpdatePositionPrice("RELIANCE", 2600)
	summary := s.GetSummary()
	if summary.UnrealizedPnL != 1000 {
		t.Errorf("expected unrealized 1000, got %f", summary.UnrealizedPnL)
	}
	got := summary.AvailableCapital + summary.InvestedCapital + summary.UnrealizedPnL
	if math.Abs(got-summary.TotalCapital) > 1e-9 {
		t.Errorf("ledger invariant broken: %f != %f", got, summary.TotalCapital)
	}
	if summary.TotalCapital != 101000 {
		t.Errorf("expected total 101000, got %f", summary.TotalCapital)
	}
}

func TestAddPositionRejectsDuplicateAndShortfall(t *testing.T) {
	s := NewState(10000, nil, zerolog.Nop())
	ctx := context.Background()

	if !s.AddPosition(ctx, "TCS", PositionLong, 2, 3000, 2940, 3120) {
		t.Fatal("expected first position to open")
	}
	if s.AddPosition(ctx, "TCS", PositionLong, 1, 3000, 2940, 3120) {
		t.Error("duplicate symbol must be rejected")
	}
	// 4000 available, 2*3000 does not fit.
	if s.AddPosition(ctx, "INFY", PositionLong, 2, 3000, 2940, 3120) {
		t.Error("capital shortfall must be rejected")
	}
	if s.OpenPositionCount() != 1 {
		t.Errorf("expected 1 open position, got %d", s.OpenPositionCount())
	}
	if s.AvailableCapital() != 4000 {
		t.Errorf("failed opens must not touch the ledger, got %f", s.AvailableCapital())
	}
}

func TestAddPositionPersistFailureLeavesLedger(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection refused")}
	s := NewState(100000, store, zerolog.Nop())

	if s.AddPosition(context.Background(), "SBIN", PositionLong, 10, 600, 588, 624) {
		t.Error("persistence failure must reject the open")
	}
	if s.AvailableCapital() != 100000 {
		t.Errorf("ledger must be untouched, got %f", s.AvailableCapital())
	}
	if s.HasPosition("SBIN") {
		t.Error("no position should be registered")
	}
}

func TestClosePositionRealizesPnL(t *testing.T) {
	s := NewState(100000, nil, zerolog.Nop())
	ctx := context.Background()

	s.AddPosition(ctx, "INFY", PositionLong, 10, 1500, 1470, 1560)
	result, err := s.ClosePosition(ctx, "INFY", 1550, "Target hit")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if result.PnL != 500 {
		t.Errorf("expected PnL 500, got %f", result.PnL)
	}
	if math.Abs(result.PnLPercent-500.0/15000*100) > 1e-9 {
		t.Errorf("unexpected PnL percent %f", result.PnLPercent)
	}
	if s.HasPosition("INFY") {
		t.Error("closed position should be removed")
	}
	if s.AvailableCapital() != 100500 {
		t.Errorf("proceeds should return to available, got %f", s.AvailableCapital())
	}

	summary := s.GetSummary()
	if summary.RealizedPnL != 500 {
		t.Errorf("expected realized 500, got %f", summary.RealizedPnL)
	}

	if _, err := s.ClosePosition(ctx, "INFY", 1550, "again"); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestShortPositionPnL(t *testing.T) {
	s := NewState(100000, nil, zerolog.Nop())
	ctx := context.Background()

	s.AddPosition(ctx, "WIPRO", PositionShort, 100, 400, 408, 384)
	s.UpdatePositionPrice("WIPRO", 390)

	position, _ := s.GetPosition("WIPRO")
	if position.UnrealizedPnL != 1000 {
		t.Errorf("short marked down should gain, got %f", position.UnrealizedPnL)
	}

	result, err := s.ClosePosition(ctx, "WIPRO", 390, "Target hit")
	if err != nil {
		t.Fatal(err)
	}
	if result.PnL != 1000 {
		t.Errorf("expected short PnL 1000, got %f", result.PnL)
	}
}

func TestStopMovesToBreakEvenAtTarget(t *testing.T) {
	s := NewState(100000, nil, zerolog.Nop())
	ctx := context.Background()

	s.AddPosition(ctx, "TATAMOTORS", PositionLong, 10, 1000, 980, 1015)
	s.UpdatePositionPrice("TATAMOTORS", 1016)

	position, _ := s.GetPosition("TATAMOTORS")
	if position.StopLoss != 1000 {
		t.Errorf("expected break-even stop at entry, got %f", position.StopLoss)
	}
}

func TestTrailingStopOnlyTightens(t *testing.T) {
	s := NewState(100000, nil, zerolog.Nop())
	ctx := context.Background()

	s.AddPosition(ctx, "HCLTECH", PositionLong, 10, 1000, 980, 1100)
	s.UpdatePositionPrice("HCLTECH", 1050)

	position, _ := s.GetPosition("HCLTECH")
	// 5% gain trails to 1050*0.985.
	want := 1050 * 0.985
	if math.Abs(position.StopLoss-want) > 1e-9 {
		t.Fatalf("expected trail to %f, got %f", want, position.StopLoss)
	}

	// Pullback: stop must not loosen.
	s.UpdatePositionPrice("HCLTECH", 1030)
	position, _ = s.GetPosition("HCLTECH")
	if math.Abs(position.StopLoss-want) > 1e-9 {
		t.Errorf("pullback must not loosen the stop, got %f", position.StopLoss)
	}
}

func TestReloadOpenPositionsFromStore(t *testing.T) {
	store := &fakeStore{
		openTrades: []TradeRecord{
			{ID: 7, Symbol: "RELIANCE", PositionType: PositionLong, Quantity: 10, EntryPrice: 2500, StopLoss: 2450, Target: 2600},
		},
	}
	s := NewState(100000, store, zerolog.Nop())

	if !s.HasPosition("RELIANCE") {
		t.Fatal("expected open trade reloaded as a position")
	}
	if s.AvailableCapital() != 75000 {
		t.Errorf("reloaded investment should reserve capital, got %f", s.AvailableCapital())
	}
	position, _ := s.GetPosition("RELIANCE")
	if position.TradeID != 7 {
		t.Errorf("expected trade id 7 carried over, got %d", position.TradeID)
	}
}

func TestSaveSnapshotWritesThroughStore(t *testing.T) {
	store := &fakeStore{}
	s := NewState(50000, store, zerolog.Nop())

	if err := s.SaveSnapshot(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(store.snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(store.snapshots))
	}
	if store.snapshots[0].TotalCapital != 50000 {
		t.Errorf("expected total 50000, got %f", store.snapshots[0].TotalCapital)
	}
}
