package models

import "time"

// Level is a single named pivot price, e.g. {"R1", 105.25}.
type Level struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// BarRef records the basis bar a level set was computed from.
type BarRef struct {
	Open      float64   `json:"open,omitempty"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// LevelSet holds every level computed by one methodology. Resistances are
// ordered R1, R2, ... strictly increasing in price; supports S1, S2, ...
// strictly decreasing. For a degenerate flat bar (high == low) all levels
// collapse to the same finite value.
type LevelSet struct {
	Method      PivotMethod `json:"method"`
	PP          float64     `json:"pp"`
	Resistances []Level     `json:"resistances"`
	Supports    []Level     `json:"supports"`
	Basis       BarRef      `json:"basis"`
}

// All returns the named levels of the set, pivot first, then resistances
// ascending, then supports descending.
func (ls LevelSet) All() []Level {
	out := make([]Level, 0, 1+len(ls.Resistances)+len(ls.Supports))
	out = append(out, Level{Name: "PP", Price: ls.PP})
	out = append(out, ls.Resistances...)
	out = append(out, ls.Supports...)
	return out
}

// Lookup returns the price of a named level and whether it exists.
func (ls LevelSet) Lookup(name string) (float64, bool) {
	for _, l := range ls.All() {
		if l.Name == name {
			return l.Price, true
		}
	}
	return 0, false
}

// Percentiles holds the standard percentile buckets of a series.
type Percentiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// SummaryStats holds moment statistics of a series. Kurtosis is excess
// kurtosis (normal distribution = 0).
type SummaryStats struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// ATRSummary captures the smoothed true-range series and its distribution.
type ATRSummary struct {
	Period       int             `json:"period"`
	Method       SmoothingMethod `json:"method"`
	Current      float64         `json:"current"`
	Series       []float64       `json:"series"`
	Percentiles  Percentiles     `json:"percentiles"`
	ZScores      []float64       `json:"z_scores"`
	PercentRanks []float64       `json:"percent_ranks"`
	Stats        SummaryStats    `json:"stats"`
}

// ProbabilityZone brackets a level at a volatility multiple. Probability is
// the chance of price landing inside the band under the ATR-as-one-sigma
// assumption.
type ProbabilityZone struct {
	Method      PivotMethod `json:"method"`
	Level       string      `json:"level"`
	Price       float64     `json:"price"`
	Multiplier  float64     `json:"multiplier"`
	Lower       float64     `json:"lower"`
	Upper       float64     `json:"upper"`
	Probability float64     `json:"probability"`
}

// LevelGamma is the volume-weighted exposure attributed to one level.
type LevelGamma struct {
	Method   PivotMethod `json:"method"`
	Level    string      `json:"level"`
	Price    float64     `json:"price"`
	Exposure float64     `json:"exposure"`
}

// GammaExposure aggregates volume-weighted exposure across all levels.
// Degraded is set when the series carried no volume and the estimate fell
// back to equal weighting.
type GammaExposure struct {
	Levels     []LevelGamma `json:"levels"`
	Net        float64      `json:"net"`
	Normalized float64      `json:"normalized"`
	Degraded   bool         `json:"degraded,omitempty"`
}

// SignificanceResult reports the touch-count significance test for one
// level. Conclusive is false when the sample was too small to test; the
// remaining fields then hold the degraded estimate rather than being absent.
type SignificanceResult struct {
	Method     PivotMethod `json:"method"`
	Level      string      `json:"level"`
	Price      float64     `json:"price"`
	Touches    int         `json:"touches"`
	Expected   float64     `json:"expected"`
	TStat      float64     `json:"t_stat"`
	PValue     float64     `json:"p_value"`
	Significant bool       `json:"significant"`
	Conclusive  bool       `json:"conclusive"`
}

// QualityScore grades a single level against the observed price history.
type QualityScore struct {
	Method         PivotMethod `json:"method"`
	Level          string      `json:"level"`
	Price          float64     `json:"price"`
	Touches        int         `json:"touches"`
	Reliability    float64     `json:"reliability"`     // touch count / 10, capped at 1.0
	Strength       float64     `json:"strength"`        // inverse normalized distance from mean close
	ConfidenceLow  float64     `json:"confidence_low"`  // 95% Gaussian interval
	ConfidenceHigh float64     `json:"confidence_high"`
	HitProbability float64     `json:"hit_probability"` // fraction of closes within 2%
}

// VolatilityRegime classifies annualized volatility against its rolling
// history.
type VolatilityRegime string

const (
	RegimeLow    VolatilityRegime = "LOW"
	RegimeNormal VolatilityRegime = "NORMAL"
	RegimeHigh   VolatilityRegime = "HIGH"
)

// VolatilityReport holds realized and implied volatility estimates.
type VolatilityReport struct {
	Daily          float64          `json:"daily"`
	Annualized     float64          `json:"annualized"`
	ImpliedPremium float64          `json:"implied_premium"`
	Regime         VolatilityRegime `json:"regime"`
}

// DrawdownReport holds peak-tracking drawdown statistics. Magnitudes are
// positive fractions (0.25 = 25% below peak).
type DrawdownReport struct {
	Max         float64 `json:"max"`
	Current     float64 `json:"current"`
	MaxDuration int     `json:"max_duration"` // bars from peak to recovery or series end
}

// VaREstimates holds the three value-at-risk estimators at one confidence
// level, each a positive loss fraction.
type VaREstimates struct {
	Parametric float64 `json:"parametric"`
	Historical float64 `json:"historical"`
	MonteCarlo float64 `json:"monte_carlo"`
}

// CorrelationReport approximates market co-movement from return volatility
// relative to an assumed market baseline. It is not a true covariance
// against a benchmark series.
type CorrelationReport struct {
	Beta        float64 `json:"beta"`
	Correlation float64 `json:"correlation"`
}

// RiskReport is the always-computed risk block of an analysis result.
type RiskReport struct {
	Volatility  VolatilityReport  `json:"volatility"`
	Drawdown    DrawdownReport    `json:"drawdown"`
	VaR95       VaREstimates      `json:"var_95"`
	VaR99       VaREstimates      `json:"var_99"`
	Correlation CorrelationReport `json:"correlation"`
}

// RatioSet holds performance attribution ratios computed from log returns.
type RatioSet struct {
	Sharpe        float64 `json:"sharpe"`
	Sortino       float64 `json:"sortino"`
	Calmar        float64 `json:"calmar"`
	Information   float64 `json:"information"`
	Treynor       float64 `json:"treynor"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	TrackingError float64 `json:"tracking_error"`
}

// AnalysisBlock groups the level-derived analyses.
type AnalysisBlock struct {
	ATR          ATRSummary           `json:"atr"`
	Zones        []ProbabilityZone    `json:"zones"`
	Gamma        *GammaExposure       `json:"gamma,omitempty"`
	Significance []SignificanceResult `json:"significance,omitempty"`
	Quality      []QualityScore       `json:"quality"`
}

// ResultMeta describes one calculation run.
type ResultMeta struct {
	ComputedAt time.Time          `json:"computed_at"`
	Bars       int                `json:"bars"`
	From       time.Time          `json:"from,omitempty"`
	To         time.Time          `json:"to,omitempty"`
	Options    CalculationOptions `json:"options"` // effective, post-merge
	Elapsed    time.Duration      `json:"elapsed"`
}

// AnalysisResult is the top-level output of a calculation. It is built once,
// never mutated afterwards, and may be shared verbatim between callers when
// served from cache.
type AnalysisResult struct {
	Meta        ResultMeta               `json:"meta"`
	Levels      map[PivotMethod]LevelSet `json:"levels"`
	Analysis    AnalysisBlock            `json:"analysis"`
	Risk        RiskReport               `json:"risk"`
	Performance *RatioSet                `json:"performance,omitempty"`
}
