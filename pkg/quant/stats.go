package quant

import (
	"fmt"
	"math"
	"sort"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// Round rounds v to precision decimal places using round-half-away-from-zero.
// Every numeric output of this package passes through here so that repeated
// calculations produce bit-identical results.
func Round(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	if precision < 0 {
		precision = 0
	}
	if precision > models.MaxPrecision {
		precision = models.MaxPrecision
	}
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}

// RoundSlice rounds every element of vs in place and returns it.
func RoundSlice(vs []float64, precision int) []float64 {
	for i, v := range vs {
		vs[i] = Round(v, precision)
	}
	return vs
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// Median returns the middle value of data, or 0 for an empty slice.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Variance returns the sample variance (n-1 denominator), or 0 when fewer
// than two values.
func Variance(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	mean := Mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(n-1)
}

// StdDev returns the sample standard deviation.
func StdDev(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// Skewness returns the adjusted sample skewness, or 0 when fewer than three
// values or the series is constant.
func Skewness(data []float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}
	mean := Mean(data)
	sd := StdDev(data)
	if sd == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		z := (v - mean) / sd
		sum += z * z * z
	}
	return n / ((n - 1) * (n - 2)) * sum
}

// ExcessKurtosis returns the adjusted sample excess kurtosis (normal
// distribution = 0), or 0 when fewer than four values or the series is
// constant.
func ExcessKurtosis(data []float64) float64 {
	n := float64(len(data))
	if n < 4 {
		return 0
	}
	mean := Mean(data)
	sd := StdDev(data)
	if sd == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		z := (v - mean) / sd
		sum += z * z * z * z
	}
	term := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3)) * sum
	return term - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// Percentile returns the p-th percentile of data (p in [0, 100]) using
// linear interpolation between closest ranks. Returns 0 for an empty slice.
func Percentile(data []float64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// PercentRank returns the fraction of values in data that are <= v, in
// [0, 1]. Returns 0 for an empty slice.
func PercentRank(data []float64, v float64) float64 {
	if len(data) == 0 {
		return 0
	}
	count := 0
	for _, x := range data {
		if x <= v {
			count++
		}
	}
	return float64(count) / float64(len(data))
}

// ZScores standardizes data against its own mean and sample standard
// deviation. A constant series yields all zeros.
func ZScores(data []float64) []float64 {
	out := make([]float64, len(data))
	mean := Mean(data)
	sd := StdDev(data)
	if sd == 0 {
		return out
	}
	for i, v := range data {
		out[i] = (v - mean) / sd
	}
	return out
}

// LogReturns converts a close-price series into log returns. Fails with
// ErrInvalidInput when fewer than two closes or any price is not a positive
// finite number.
func LogReturns(closes []float64) ([]float64, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("log returns need at least 2 closes, got %d: %w", len(closes), models.ErrInvalidInput)
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 ||
			math.IsNaN(closes[i]) || math.IsInf(closes[i], 0) {
			return nil, fmt.Errorf("close at index %d is not a positive finite price: %w", i, models.ErrInvalidInput)
		}
		out[i-1] = math.Log(closes[i] / closes[i-1])
	}
	return out, nil
}

// summaryStats computes the full moment block for a series.
func summaryStats(data []float64, precision int) models.SummaryStats {
	return models.SummaryStats{
		Mean:     Round(Mean(data), precision),
		Median:   Round(Median(data), precision),
		Variance: Round(Variance(data), precision),
		StdDev:   Round(StdDev(data), precision),
		Skewness: Round(Skewness(data), precision),
		Kurtosis: Round(ExcessKurtosis(data), precision),
	}
}

// checkFinite fails with ErrCalculationFailed when any value is NaN or Inf.
func checkFinite(context string, vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s produced a non-finite value: %w", context, models.ErrCalculationFailed)
		}
	}
	return nil
}
