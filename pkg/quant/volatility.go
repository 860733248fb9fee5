package quant

import (
	"fmt"
	"math"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// impliedPremiumFactor scales realized volatility into the simplified
// implied-premium estimate: options markets quote a fairly stable premium
// over realized vol in normal regimes.
const impliedPremiumFactor = 0.15

// regimeWindow is the rolling window (in returns) for the volatility-regime
// percentile buckets.
const regimeWindow = 20

// Volatility computes realized volatility from a log-return series: daily
// sample standard deviation, the sqrt(252) annualization, a simplified
// implied-volatility premium, and the LOW/NORMAL/HIGH regime from rolling
// percentile buckets. Fails with ErrInsufficientData when fewer than two
// returns are supplied.
func Volatility(returns []float64, precision int) (models.VolatilityReport, error) {
	if len(returns) < 2 {
		return models.VolatilityReport{}, fmt.Errorf("volatility needs at least 2 returns, got %d: %w", len(returns), models.ErrInsufficientData)
	}

	daily := StdDev(returns)
	annualized := daily * math.Sqrt(TradingDaysPerYear)
	if err := checkFinite("realized volatility", daily, annualized); err != nil {
		return models.VolatilityReport{}, err
	}

	return models.VolatilityReport{
		Daily:          Round(daily, precision),
		Annualized:     Round(annualized, precision),
		ImpliedPremium: Round(annualized*impliedPremiumFactor, precision),
		Regime:         ClassifyRegime(returns),
	}, nil
}

// ClassifyRegime buckets the latest rolling-window annualized volatility
// against its own history: below the 25th percentile is LOW, above the 75th
// is HIGH, anything else NORMAL. Series too short to form at least two
// windows classify as NORMAL.
func ClassifyRegime(returns []float64) models.VolatilityRegime {
	window := regimeWindow
	if window > len(returns)/2 {
		window = len(returns) / 2
	}
	if window < 2 {
		return models.RegimeNormal
	}

	vols := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		vols = append(vols, StdDev(returns[i-window:i])*math.Sqrt(TradingDaysPerYear))
	}
	if len(vols) < 2 {
		return models.RegimeNormal
	}

	current := vols[len(vols)-1]
	p25 := Percentile(vols, 25)
	p75 := Percentile(vols, 75)
	switch {
	case p25 == p75:
		return models.RegimeNormal
	case current < p25:
		return models.RegimeLow
	case current > p75:
		return models.RegimeHigh
	default:
		return models.RegimeNormal
	}
}

// Drawdown tracks the running peak of a close series and reports the
// deepest and the current peak-to-trough decline, both as positive
// fractions, plus the longest stretch of bars spent below a peak.
func Drawdown(closes []float64, precision int) models.DrawdownReport {
	if len(closes) == 0 {
		return models.DrawdownReport{}
	}

	peak := closes[0]
	maxDD := 0.0
	maxDuration := 0
	duration := 0

	for _, c := range closes {
		if c >= peak {
			peak = c
			duration = 0
			continue
		}
		duration++
		if duration > maxDuration {
			maxDuration = duration
		}
		if peak > 0 {
			dd := (peak - c) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	current := 0.0
	if peak > 0 {
		current = (peak - closes[len(closes)-1]) / peak
	}

	return models.DrawdownReport{
		Max:         Round(maxDD, precision),
		Current:     Round(current, precision),
		MaxDuration: maxDuration,
	}
}
