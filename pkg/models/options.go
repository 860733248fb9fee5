package models

import "time"

// PivotMethod identifies one of the supported pivot-point methodologies.
type PivotMethod string

const (
	PivotStandard  PivotMethod = "standard"
	PivotFibonacci PivotMethod = "fibonacci"
	PivotCamarilla PivotMethod = "camarilla"
	PivotWoodie    PivotMethod = "woodie"
	PivotDeMark    PivotMethod = "demark"
)

// AllPivotMethods lists every supported methodology in canonical order.
func AllPivotMethods() []PivotMethod {
	return []PivotMethod{PivotStandard, PivotFibonacci, PivotCamarilla, PivotWoodie, PivotDeMark}
}

// Valid reports whether m names a known methodology.
func (m PivotMethod) Valid() bool {
	switch m {
	case PivotStandard, PivotFibonacci, PivotCamarilla, PivotWoodie, PivotDeMark:
		return true
	}
	return false
}

// SmoothingMethod selects the ATR smoothing algorithm.
type SmoothingMethod string

const (
	SmoothingWilder SmoothingMethod = "wilder"
	SmoothingEMA    SmoothingMethod = "ema"
	SmoothingSMA    SmoothingMethod = "sma"
)

// Valid reports whether s names a known smoothing algorithm.
func (s SmoothingMethod) Valid() bool {
	switch s {
	case SmoothingWilder, SmoothingEMA, SmoothingSMA:
		return true
	}
	return false
}

// Default bounds for calculation options. The ATR period bounds can be
// overridden by engine configuration; the rest are fixed.
const (
	DefaultMinATRPeriod = 5
	DefaultMaxATRPeriod = 100
	MinLookback         = 10
	MaxZoneMultiplier   = 5.0
	MaxPrecision        = 12
	DefaultPrecision    = 8
)

// CalculationOptions selects methodologies and tuning parameters for a
// single calculation. Zero-valued fields mean "use the configured default";
// the engine resolves every option through its configuration collaborator
// before use, so a zero value never reaches the numeric library.
type CalculationOptions struct {
	Methods            []PivotMethod   `json:"methods,omitempty" mapstructure:"methods"`
	ATRPeriod          int             `json:"atr_period,omitempty" mapstructure:"atr_period"`
	ATRMethod          SmoothingMethod `json:"atr_method,omitempty" mapstructure:"atr_method"`
	Lookback           int             `json:"lookback,omitempty" mapstructure:"lookback"`
	ZoneMultipliers    []float64       `json:"zone_multipliers,omitempty" mapstructure:"zone_multipliers"`
	EnableGamma        bool            `json:"enable_gamma,omitempty" mapstructure:"enable_gamma"`
	EnableSignificance bool            `json:"enable_significance,omitempty" mapstructure:"enable_significance"`
	EnablePerformance  bool            `json:"enable_performance,omitempty" mapstructure:"enable_performance"`
	CacheTTL           time.Duration   `json:"cache_ttl,omitempty" mapstructure:"cache_ttl"`
	Precision          int             `json:"precision,omitempty" mapstructure:"precision"`
}
