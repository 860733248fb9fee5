package quant

import (
	"math"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// touchBandFraction is the relative half-width of the band a bar must reach
// for a level to count as touched.
const touchBandFraction = 0.01

// significanceAlpha is the two-sided rejection threshold.
const significanceAlpha = 0.05

// minConclusiveSample is the smallest series length for which the test is
// reported as conclusive.
const minConclusiveSample = 20

// TouchSignificance tests, per level, whether the observed touch count
// differs from what a random walk through the same price span would
// produce. Inconclusive tests (short series, degenerate span) still return
// the degraded estimate with Conclusive=false rather than an error.
func TouchSignificance(bars []models.Bar, sets []models.LevelSet, precision int) []models.SignificanceResult {
	if len(bars) == 0 {
		return nil
	}

	span, meanRange := priceSpan(bars)
	var results []models.SignificanceResult

	for _, set := range sets {
		for _, lv := range set.All() {
			r := models.SignificanceResult{
				Method:  set.Method,
				Level:   lv.Name,
				Price:   lv.Price,
				Touches: CountTouches(bars, lv.Price),
			}

			// Expected touch rate: the chance a random bar's reach covers
			// the level band, approximated by band+range coverage of the
			// observed span.
			if span > 0 && lv.Price > 0 {
				p0 := (2*lv.Price*touchBandFraction + meanRange) / span
				if p0 > 1 {
					p0 = 1
				}
				n := float64(len(bars))
				expected := n * p0
				variance := n * p0 * (1 - p0)
				r.Expected = Round(expected, precision)
				if variance > 0 {
					t := (float64(r.Touches) - expected) / math.Sqrt(variance)
					p := 2 * (1 - NormalCDF(math.Abs(t)))
					r.TStat = Round(t, precision)
					r.PValue = Round(p, precision)
					r.Significant = p < significanceAlpha && float64(r.Touches) > expected
					r.Conclusive = len(bars) >= minConclusiveSample
				}
			}

			results = append(results, r)
		}
	}
	return results
}

// CountTouches counts the bars whose [low, high] reach intersects the
// 1% band around the level.
func CountTouches(bars []models.Bar, level float64) int {
	if level <= 0 {
		return 0
	}
	lower := level * (1 - touchBandFraction)
	upper := level * (1 + touchBandFraction)
	count := 0
	for _, b := range bars {
		if b.Low <= upper && b.High >= lower {
			count++
		}
	}
	return count
}

// priceSpan returns the high-low span of the whole series and the mean bar
// range.
func priceSpan(bars []models.Bar) (span, meanRange float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	lo, hi := bars[0].Low, bars[0].High
	sumRange := 0.0
	for _, b := range bars {
		if b.Low < lo {
			lo = b.Low
		}
		if b.High > hi {
			hi = b.High
		}
		sumRange += b.Range()
	}
	return hi - lo, sumRange / float64(len(bars))
}
