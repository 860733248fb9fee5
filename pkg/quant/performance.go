package quant

import (
	"fmt"
	"math"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// AssumedMarketReturn is the annual market-return baseline paired with
// AssumedMarketVol for the benchmark-free ratio approximations.
const AssumedMarketReturn = 0.08

// PerformanceRatios computes the performance attribution block from a
// log-return series. Beta, alpha, Treynor, tracking error and the
// information ratio all lean on the assumed market baseline (16% vol, 8%
// return) rather than a real benchmark series; the risk-free rate is taken
// as zero throughout. Fails with ErrInsufficientData for fewer than two
// returns.
func PerformanceRatios(returns []float64, maxDrawdown float64, market models.CorrelationReport, precision int) (models.RatioSet, error) {
	if len(returns) < 2 {
		return models.RatioSet{}, fmt.Errorf("performance ratios need at least 2 returns, got %d: %w", len(returns), models.ErrInsufficientData)
	}

	meanDaily := Mean(returns)
	sd := StdDev(returns)
	annReturn := meanDaily * TradingDaysPerYear
	annVol := sd * math.Sqrt(TradingDaysPerYear)

	var rs models.RatioSet

	if sd > 0 {
		rs.Sharpe = meanDaily / sd * math.Sqrt(TradingDaysPerYear)
	}

	// Downside deviation over the full sample length, negative returns only.
	var downsideSqSum float64
	var downsideCount int
	for _, r := range returns {
		if r < 0 {
			downsideSqSum += r * r
			downsideCount++
		}
	}
	if downsideCount > 0 {
		downsideDev := math.Sqrt(downsideSqSum / float64(len(returns)))
		if downsideDev > 0 {
			rs.Sortino = meanDaily / downsideDev * math.Sqrt(TradingDaysPerYear)
		}
	}

	if maxDrawdown > 0 {
		rs.Calmar = annReturn / maxDrawdown
	}

	rs.Beta = market.Beta
	rs.Alpha = annReturn - market.Beta*AssumedMarketReturn
	if market.Beta != 0 {
		rs.Treynor = annReturn / market.Beta
	}

	// Tracking error against the assumed market from the vol triangle
	// sqrt(va^2 + vm^2 - 2*rho*va*vm), using the proxy correlation.
	te := math.Sqrt(math.Max(0, annVol*annVol+AssumedMarketVol*AssumedMarketVol-
		2*market.Correlation*annVol*AssumedMarketVol))
	rs.TrackingError = te
	if te > 0 {
		rs.Information = (annReturn - AssumedMarketReturn) / te
	}

	if err := checkFinite("performance ratios",
		rs.Sharpe, rs.Sortino, rs.Calmar, rs.Information,
		rs.Treynor, rs.Alpha, rs.Beta, rs.TrackingError); err != nil {
		return models.RatioSet{}, err
	}

	rs.Sharpe = Round(rs.Sharpe, precision)
	rs.Sortino = Round(rs.Sortino, precision)
	rs.Calmar = Round(rs.Calmar, precision)
	rs.Information = Round(rs.Information, precision)
	rs.Treynor = Round(rs.Treynor, precision)
	rs.Alpha = Round(rs.Alpha, precision)
	rs.Beta = Round(rs.Beta, precision)
	rs.TrackingError = Round(rs.TrackingError, precision)
	return rs, nil
}
