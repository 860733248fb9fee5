package quant

import (
	"fmt"
	"math"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// DefaultVaRPaths is the Monte Carlo path count used when the caller does
// not override it.
const DefaultVaRPaths = 10000

// AssumedMarketVol is the annualized volatility baseline used to
// approximate beta and market correlation when no benchmark series is
// supplied.
const AssumedMarketVol = 0.16

// ParametricVaR estimates value at risk at the given confidence level from
// the normal quantile of the return distribution: VaR = -(mu + z*sigma)
// with z = InverseNormalCDF(1-confidence), floored at zero. Fails with
// ErrInsufficientData for fewer than two returns and ErrConfigurationInvalid
// for a confidence outside (0, 1).
func ParametricVaR(returns []float64, confidence float64, precision int) (float64, error) {
	if err := checkVaRInput(returns, confidence); err != nil {
		return 0, err
	}
	z, err := InverseNormalCDF(1 - confidence)
	if err != nil {
		return 0, err
	}
	v := -(Mean(returns) + z*StdDev(returns))
	if err := checkFinite("parametric VaR", v); err != nil {
		return 0, err
	}
	return Round(math.Max(0, v), precision), nil
}

// HistoricalVaR estimates value at risk as the empirical (1-confidence)
// quantile of the return series, floored at zero.
func HistoricalVaR(returns []float64, confidence float64, precision int) (float64, error) {
	if err := checkVaRInput(returns, confidence); err != nil {
		return 0, err
	}
	q := Percentile(returns, (1-confidence)*100)
	return Round(math.Max(0, -q), precision), nil
}

// MonteCarloVaR simulates single-period returns as mu + sigma*Z with a
// Box-Muller sampler and extracts the empirical quantile from the simulated
// paths. A fixed seed reproduces the estimate exactly; paths <= 0 falls back
// to DefaultVaRPaths.
func MonteCarloVaR(returns []float64, confidence float64, paths int, seed int64, precision int) (float64, error) {
	if err := checkVaRInput(returns, confidence); err != nil {
		return 0, err
	}
	if paths <= 0 {
		paths = DefaultVaRPaths
	}

	mu := Mean(returns)
	sigma := StdDev(returns)
	sampler := NewNormalSampler(seed)

	simulated := make([]float64, paths)
	for i := range simulated {
		simulated[i] = mu + sigma*sampler.Next()
	}

	q := Percentile(simulated, (1-confidence)*100)
	return Round(math.Max(0, -q), precision), nil
}

// VaRProfile runs all three estimators at one confidence level.
func VaRProfile(returns []float64, confidence float64, paths int, seed int64, precision int) (models.VaREstimates, error) {
	parametric, err := ParametricVaR(returns, confidence, precision)
	if err != nil {
		return models.VaREstimates{}, err
	}
	historical, err := HistoricalVaR(returns, confidence, precision)
	if err != nil {
		return models.VaREstimates{}, err
	}
	mc, err := MonteCarloVaR(returns, confidence, paths, seed, precision)
	if err != nil {
		return models.VaREstimates{}, err
	}
	return models.VaREstimates{
		Parametric: parametric,
		Historical: historical,
		MonteCarlo: mc,
	}, nil
}

// MarketProxy approximates beta and market correlation from annualized
// volatility relative to the assumed market baseline. This is a volatility
// ratio, not a covariance against an actual benchmark; it degrades to
// beta=0 for a flat series.
func MarketProxy(annualizedVol float64, precision int) models.CorrelationReport {
	beta := annualizedVol / AssumedMarketVol
	corr := 0.0
	if annualizedVol > 0 {
		lo, hi := math.Min(annualizedVol, AssumedMarketVol), math.Max(annualizedVol, AssumedMarketVol)
		corr = lo / hi
	}
	return models.CorrelationReport{
		Beta:        Round(beta, precision),
		Correlation: Round(corr, precision),
	}
}

func checkVaRInput(returns []float64, confidence float64) error {
	if len(returns) < 2 {
		return fmt.Errorf("VaR needs at least 2 returns, got %d: %w", len(returns), models.ErrInsufficientData)
	}
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("VaR confidence must be in (0, 1), got %v: %w", confidence, models.ErrConfigurationInvalid)
	}
	return nil
}
