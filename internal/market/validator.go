package market

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySeries        = errors.New("empty candle series")
	ErrUnorderedSeries    = errors.New("candles not in ascending timestamp order")
	ErrDuplicateTimestamp = errors.New("duplicate candle timestamp")
)

// ValidateSeries checks the structural invariants a candle series must
// satisfy before it enters the decision pipeline: ascending timestamps,
// no duplicates, positive prices and non-negative volume.
func ValidateSeries(candles []Candle) error {
	if len(candles) == 0 {
		return ErrEmptySeries
	}

	for i, c := range candles {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("candle %d at %s: non-positive price", i, c.Timestamp)
		}
		if c.Volume < 0 {
			return fmt.Errorf("candle %d at %s: negative volume", i, c.Timestamp)
		}
		if c.High < c.Low {
			return fmt.Errorf("candle %d at %s: high below low", i, c.Timestamp)
		}
		if i == 0 {
			continue
		}
		prev := candles[i-1]
		if c.Timestamp.Equal(prev.Timestamp) {
			return fmt.Errorf("%w: %s", ErrDuplicateTimestamp, c.Timestamp)
		}
		if c.Timestamp.Before(prev.Timestamp) {
			return fmt.Errorf("%w: index %d", ErrUnorderedSeries, i)
		}
	}

	return nil
}
