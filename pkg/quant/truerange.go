package quant

import (
	"fmt"
	"math"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// TrueRange computes the true-range series of a bar sequence: for each bar
// after the first, max(high-low, |high-prevClose|, |low-prevClose|). The
// result has len(bars)-1 entries. Fails with ErrInvalidInput when fewer than
// two bars are supplied or a bar violates the OHLC invariants.
func TrueRange(bars []models.Bar) ([]float64, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("true range needs at least 2 bars, got %d: %w", len(bars), models.ErrInvalidInput)
	}
	for i, b := range bars {
		if err := checkBar(i, b); err != nil {
			return nil, err
		}
	}

	tr := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i-1] = math.Max(hl, math.Max(hc, lc))
	}
	return tr, nil
}

func checkBar(i int, b models.Bar) error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar %d has a non-finite field: %w", i, models.ErrInvalidInput)
		}
	}
	if b.Low > b.High {
		return fmt.Errorf("bar %d has low %v above high %v: %w", i, b.Low, b.High, models.ErrInvalidInput)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("bar %d has close %v outside [low, high]: %w", i, b.Close, models.ErrInvalidInput)
	}
	if b.HasOpen() && (b.Open < b.Low || b.Open > b.High) {
		return fmt.Errorf("bar %d has open %v outside [low, high]: %w", i, b.Open, models.ErrInvalidInput)
	}
	return nil
}

// ATR smooths a true-range series over the given period and returns the
// smoothed series with its distribution statistics. The returned series has
// len(tr)-period+1 entries for every smoothing method. Fails with
// ErrInsufficientData when the series is shorter than the period.
func ATR(tr []float64, period int, method models.SmoothingMethod, precision int) (models.ATRSummary, error) {
	if period < 1 {
		return models.ATRSummary{}, fmt.Errorf("ATR period must be positive, got %d: %w", period, models.ErrConfigurationInvalid)
	}
	if len(tr) < period {
		return models.ATRSummary{}, fmt.Errorf("ATR(%d) needs %d true ranges, got %d: %w", period, period, len(tr), models.ErrInsufficientData)
	}
	if !method.Valid() {
		return models.ATRSummary{}, fmt.Errorf("unknown smoothing method %q: %w", method, models.ErrConfigurationInvalid)
	}

	var series []float64
	switch method {
	case models.SmoothingSMA:
		series = smaSeries(tr, period)
	case models.SmoothingEMA:
		series = emaSeries(tr, period)
	case models.SmoothingWilder:
		series = wilderSeries(tr, period)
	}

	if err := checkFinite("ATR smoothing", series...); err != nil {
		return models.ATRSummary{}, err
	}

	zscores := ZScores(series)
	ranks := make([]float64, len(series))
	for i, v := range series {
		ranks[i] = PercentRank(series, v)
	}

	summary := models.ATRSummary{
		Period:  period,
		Method:  method,
		Current: Round(series[len(series)-1], precision),
		Series:  RoundSlice(series, precision),
		Percentiles: models.Percentiles{
			P10: Round(Percentile(series, 10), precision),
			P25: Round(Percentile(series, 25), precision),
			P50: Round(Percentile(series, 50), precision),
			P75: Round(Percentile(series, 75), precision),
			P90: Round(Percentile(series, 90), precision),
		},
		ZScores:      RoundSlice(zscores, precision),
		PercentRanks: RoundSlice(ranks, precision),
		Stats:        summaryStats(series, precision),
	}
	return summary, nil
}

// smaSeries is a simple rolling mean over the period.
func smaSeries(tr []float64, period int) []float64 {
	out := make([]float64, len(tr)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[0] = sum / float64(period)
	for i := period; i < len(tr); i++ {
		sum += tr[i] - tr[i-period]
		out[i-period+1] = sum / float64(period)
	}
	return out
}

// emaSeries seeds with the SMA of the first period values, then applies
// exponential smoothing with multiplier 2/(period+1).
func emaSeries(tr []float64, period int) []float64 {
	out := make([]float64, len(tr)-period+1)
	k := 2.0 / float64(period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[0] = sum / float64(period)
	for i := period; i < len(tr); i++ {
		out[i-period+1] = tr[i]*k + out[i-period]*(1-k)
	}
	return out
}

// wilderSeries seeds with the SMA of the first period values, then applies
// the Wilder recurrence atr[i] = atr[i-1] + (tr[i]-atr[i-1])/period,
// equivalent to exponential smoothing with multiplier 1/period.
func wilderSeries(tr []float64, period int) []float64 {
	out := make([]float64, len(tr)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[0] = sum / float64(period)
	for i := period; i < len(tr); i++ {
		prev := out[i-period]
		out[i-period+1] = prev + (tr[i]-prev)/float64(period)
	}
	return out
}
