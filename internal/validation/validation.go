// Package validation implements the structural input checks run before any
// calculation: bar shape, ordering, option bounds, and a data-quality score.
// Problems are gathered in full rather than stopping at the first.
package validation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// Quality penalties, each scaled by the fraction of affected bars.
const (
	zeroVolumePenalty   = 0.2
	extremeRangePenalty = 0.1
	gapPenalty          = 0.2

	// extremeRangeFactor flags bars whose range exceeds this multiple of the
	// median range; gapFactor does the same for timestamp gaps.
	extremeRangeFactor = 5.0
	gapFactor          = 3.0
)

// Validator checks bar series and options against the engine's structural
// requirements.
type Validator struct {
	minBars int
}

// New returns a Validator requiring at least minBars bars.
func New(minBars int) *Validator {
	if minBars < 2 {
		minBars = 2
	}
	return &Validator{minBars: minBars}
}

// Validate runs every check and returns the collected findings. Errors make
// the report invalid; warnings and the quality score are advisory.
func (v *Validator) Validate(bars []models.Bar, opts models.CalculationOptions) models.ValidationReport {
	var errs error
	var warnings []string

	if len(bars) < v.minBars {
		errs = multierr.Append(errs, fmt.Errorf("insufficient bars: need at least %d, got %d", v.minBars, len(bars)))
	}

	errs = multierr.Append(errs, checkBars(bars))
	errs = multierr.Append(errs, checkTimestamps(bars, &warnings))
	errs = multierr.Append(errs, checkOptions(opts))

	quality := scoreQuality(bars, &warnings)

	report := models.ValidationReport{
		Valid:    errs == nil,
		Warnings: warnings,
		Quality:  quality,
	}
	for _, err := range multierr.Errors(errs) {
		report.Errors = append(report.Errors, err.Error())
	}
	return report
}

// checkBars verifies per-bar OHLC structure: finite positive prices, high
// covering low, close and any open inside the range, non-negative volume.
func checkBars(bars []models.Bar) error {
	var errs error
	for i, b := range bars {
		if !isFinite(b.Open) || !isFinite(b.High) || !isFinite(b.Low) || !isFinite(b.Close) || !isFinite(b.Volume) {
			errs = multierr.Append(errs, fmt.Errorf("bar %d: non-finite field", i))
			continue
		}
		if b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("bar %d: non-positive price", i))
			continue
		}
		if b.High < b.Low {
			errs = multierr.Append(errs, fmt.Errorf("bar %d: high %v below low %v", i, b.High, b.Low))
			continue
		}
		if b.Close < b.Low || b.Close > b.High {
			errs = multierr.Append(errs, fmt.Errorf("bar %d: close %v outside [%v, %v]", i, b.Close, b.Low, b.High))
		}
		if b.HasOpen() && (b.Open < b.Low || b.Open > b.High) {
			errs = multierr.Append(errs, fmt.Errorf("bar %d: open %v outside [%v, %v]", i, b.Open, b.Low, b.High))
		}
		if b.Volume < 0 {
			errs = multierr.Append(errs, fmt.Errorf("bar %d: negative volume %v", i, b.Volume))
		}
	}
	return errs
}

// checkTimestamps enforces strictly increasing timestamps where present and
// warns when only part of the series carries them.
func checkTimestamps(bars []models.Bar, warnings *[]string) error {
	var errs error
	var prev time.Time
	stamped := 0

	for i, b := range bars {
		if !b.HasTimestamp() {
			continue
		}
		stamped++
		if !prev.IsZero() {
			switch {
			case b.Timestamp.Before(prev):
				errs = multierr.Append(errs, fmt.Errorf("bar %d: timestamp %s out of order", i, b.Timestamp.Format(time.RFC3339)))
			case b.Timestamp.Equal(prev):
				errs = multierr.Append(errs, fmt.Errorf("bar %d: duplicate timestamp %s", i, b.Timestamp.Format(time.RFC3339)))
			}
		}
		prev = b.Timestamp
	}

	if stamped > 0 && stamped < len(bars) {
		*warnings = append(*warnings, fmt.Sprintf("timestamps present on only %d of %d bars", stamped, len(bars)))
	}
	return errs
}

// checkOptions bounds-checks the effective options. The resolver applies the
// same bounds; re-checking here keeps the validator usable standalone.
func checkOptions(opts models.CalculationOptions) error {
	var errs error

	for _, m := range opts.Methods {
		if !m.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("unknown pivot method %q", m))
		}
	}
	if opts.ATRMethod != "" && !opts.ATRMethod.Valid() {
		errs = multierr.Append(errs, fmt.Errorf("unknown smoothing method %q", opts.ATRMethod))
	}
	if opts.ATRPeriod != 0 && (opts.ATRPeriod < models.DefaultMinATRPeriod || opts.ATRPeriod > models.DefaultMaxATRPeriod) {
		errs = multierr.Append(errs, fmt.Errorf("atr period %d outside [%d, %d]", opts.ATRPeriod, models.DefaultMinATRPeriod, models.DefaultMaxATRPeriod))
	}
	if opts.Lookback != 0 && opts.Lookback < models.MinLookback {
		errs = multierr.Append(errs, fmt.Errorf("lookback %d below minimum %d", opts.Lookback, models.MinLookback))
	}
	for _, m := range opts.ZoneMultipliers {
		if m <= 0 || m > models.MaxZoneMultiplier {
			errs = multierr.Append(errs, fmt.Errorf("zone multiplier %v outside (0, %v]", m, models.MaxZoneMultiplier))
		}
	}
	if opts.Precision < 0 || opts.Precision > models.MaxPrecision {
		errs = multierr.Append(errs, fmt.Errorf("precision %d outside [0, %d]", opts.Precision, models.MaxPrecision))
	}
	if opts.CacheTTL < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cache ttl %s is negative", opts.CacheTTL))
	}
	return errs
}

// scoreQuality rates the series in [0, 1], penalizing zero-volume bars,
// extreme-range bars and timestamp gaps in proportion to how much of the
// series they affect.
func scoreQuality(bars []models.Bar, warnings *[]string) float64 {
	if len(bars) == 0 {
		return 0
	}
	quality := 1.0

	// Zero-volume bars only count against a series that carries volume at all.
	withVolume := 0
	for _, b := range bars {
		if b.HasVolume() {
			withVolume++
		}
	}
	if withVolume > 0 && withVolume < len(bars) {
		fraction := float64(len(bars)-withVolume) / float64(len(bars))
		quality -= zeroVolumePenalty * fraction
		*warnings = append(*warnings, fmt.Sprintf("%d of %d bars have no volume", len(bars)-withVolume, len(bars)))
	}

	if fraction, count := extremeRangeFraction(bars); count > 0 {
		quality -= extremeRangePenalty * fraction
		*warnings = append(*warnings, fmt.Sprintf("%d bars with range above %gx the median", count, extremeRangeFactor))
	}

	if fraction, count := gapFraction(bars); count > 0 {
		quality -= gapPenalty * fraction
		*warnings = append(*warnings, fmt.Sprintf("%d timestamp gaps above %gx the median spacing", count, gapFactor))
	}

	return math.Max(0, math.Min(1, quality))
}

func extremeRangeFraction(bars []models.Bar) (float64, int) {
	ranges := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.High >= b.Low {
			ranges = append(ranges, b.High-b.Low)
		}
	}
	if len(ranges) < 3 {
		return 0, 0
	}
	median := medianOf(ranges)
	if median <= 0 {
		return 0, 0
	}
	count := 0
	for _, r := range ranges {
		if r > extremeRangeFactor*median {
			count++
		}
	}
	return float64(count) / float64(len(ranges)), count
}

func gapFraction(bars []models.Bar) (float64, int) {
	gaps := make([]float64, 0, len(bars))
	var prev time.Time
	for _, b := range bars {
		if !b.HasTimestamp() {
			continue
		}
		if !prev.IsZero() && b.Timestamp.After(prev) {
			gaps = append(gaps, float64(b.Timestamp.Sub(prev)))
		}
		prev = b.Timestamp
	}
	if len(gaps) < 3 {
		return 0, 0
	}
	median := medianOf(gaps)
	if median <= 0 {
		return 0, 0
	}
	count := 0
	for _, g := range gaps {
		if g > gapFactor*median {
			count++
		}
	}
	return float64(count) / float64(len(gaps)), count
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
