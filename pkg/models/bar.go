// Package models defines the data structures shared across PivotQuant:
// price bars, calculation options, pivot level sets, and the composite
// analysis result returned by the engine.
package models

import "time"

// Bar represents a single OHLC(V) observation.
//
// Open, Volume and Timestamp are optional; a zero value means the field was
// not supplied. A bar series is ordered oldest to newest, and when
// timestamps are present they must be strictly increasing.
type Bar struct {
	Timestamp time.Time `json:"timestamp,omitempty"`
	Open      float64   `json:"open,omitempty"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// Range returns the high-low span of the bar.
func (b Bar) Range() float64 { return b.High - b.Low }

// HasOpen reports whether the bar carries an open price.
func (b Bar) HasOpen() bool { return b.Open != 0 }

// HasVolume reports whether the bar carries volume information.
func (b Bar) HasVolume() bool { return b.Volume > 0 }

// HasTimestamp reports whether the bar carries a timestamp.
func (b Bar) HasTimestamp() bool { return !b.Timestamp.IsZero() }

// LastBars returns the trailing n bars of the series, or the whole series
// when it is shorter than n. The returned slice aliases the input.
func LastBars(bars []Bar, n int) []Bar {
	if n <= 0 {
		return nil
	}
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

// Closes extracts the close prices of a bar series.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volumes of a bar series. Bars without volume
// contribute zero.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
