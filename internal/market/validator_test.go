package market

import (
	"errors"
	"testing"
	"time"
)

func validSeries(count int) []Candle {
	base := time.Date(2025, 4, 1, 9, 15, 0, 0, time.UTC)
	candles := make([]Candle, count)
	for i := range candles {
		candles[i] = Candle{
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:      100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
		}
	}
	return candles
}

func TestValidateSeriesAccepts(t *testing.T) {
	if err := ValidateSeries(validSeries(10)); err != nil {
		t.Errorf("clean series should validate: %v", err)
	}
}

func TestValidateSeriesEmpty(t *testing.T) {
	if err := ValidateSeries(nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestValidateSeriesUnordered(t *testing.T) {
	candles := validSeries(5)
	candles[2], candles[3] = candles[3], candles[2]
	if err := ValidateSeries(candles); !errors.Is(err, ErrUnorderedSeries) {
		t.Errorf("expected ErrUnorderedSeries, got %v", err)
	}
}

func TestValidateSeriesDuplicateTimestamp(t *testing.T) {
	candles := validSeries(5)
	candles[3].Timestamp = candles[2].Timestamp
	if err := ValidateSeries(candles); !errors.Is(err, ErrDuplicateTimestamp) {
		t.Errorf("expected ErrDuplicateTimestamp, got %v", err)
	}
}

func TestValidateSeriesBadPrices(t *testing.T) {
	candles := validSeries(5)
	candles[1].Close = 0
	if err := ValidateSeries(candles); err == nil {
		t.Error("non-positive price must fail validation")
	}

	candles = validSeries(5)
	candles[4].High = 90 // below low 99
	if err := ValidateSeries(candles); err == nil {
		t.Error("high below low must fail validation")
	}

	candles = validSeries(5)
	candles[0].Volume = -1
	if err := ValidateSeries(candles); err == nil {
		t.Error("negative volume must fail validation")
	}
}
