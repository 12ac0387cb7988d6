// Package trend turns external time series into percent-change summaries.
// Observation cadence varies by source (daily scrapes, weekly releases), so
// lookback points are found by nearest date distance, never by array index.
package trend

import (
	"math"
	"time"
)

// Point is one observation of an external series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Trend summarizes a series relative to its most recent observation.
// Change fields are percent changes rounded to one decimal; they are nil
// when no usable lookback point exists.
type Trend struct {
	Current  float64  `json:"current"`
	Previous *float64 `json:"previous,omitempty"`
	Change1w *float64 `json:"change_1w,omitempty"`
	Change4w *float64 `json:"change_4w,omitempty"`
}

// Build computes a Trend from observations ordered newest-first. Returns nil
// on empty input or when the current value is not a finite number.
// Placeholder values (NaN, Inf) are filtered out before any lookback.
func Build(points []Point) *Trend {
	usable := make([]Point, 0, len(points))
	for _, p := range points {
		if isFinite(p.Value) {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return nil
	}

	current := usable[0]
	t := &Trend{Current: current.Value}

	if len(usable) >= 2 {
		prev := usable[1].Value
		t.Previous = &prev
	}

	t.Change1w = changeAgainstNearest(current, usable[1:], 7)
	t.Change4w = changeAgainstNearest(current, usable[1:], 28)

	return t
}

// changeAgainstNearest finds the prior observation closest to daysBack days
// before the current date and returns the percent change against it.
func changeAgainstNearest(current Point, prior []Point, daysBack int) *float64 {
	if len(prior) == 0 {
		return nil
	}

	target := current.Date.AddDate(0, 0, -daysBack)
	best := prior[0]
	bestDist := absDuration(best.Date.Sub(target))
	for _, p := range prior[1:] {
		if d := absDuration(p.Date.Sub(target)); d < bestDist {
			best = p
			bestDist = d
		}
	}

	if best.Value == 0 {
		return nil
	}
	change := round1((current.Value - best.Value) / best.Value * 100)
	return &change
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
