package config

import (
	"fmt"
	"time"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// Defaults returns the built-in calculation options used when neither the
// configuration nor the caller overrides a field.
func Defaults() models.CalculationOptions {
	return models.CalculationOptions{
		Methods:         models.AllPivotMethods(),
		ATRPeriod:       14,
		ATRMethod:       models.SmoothingWilder,
		Lookback:        20,
		ZoneMultipliers: []float64{0.5, 1.0, 1.5, 2.0},
		CacheTTL:        5 * time.Minute,
		Precision:       models.DefaultPrecision,
	}
}

// Resolver merges per-call options over the configured defaults and
// bounds-checks the result. The zero value of every option field means
// "inherit"; booleans are floors, so a default of true cannot be switched
// off per call.
type Resolver struct {
	defaults models.CalculationOptions
}

// NewResolver builds a Resolver from the configured defaults, filling any
// hole with the built-in Defaults. Misconfigured defaults fail here rather
// than on the first calculation.
func NewResolver(d DefaultsConfig) (*Resolver, error) {
	merged := merge(Defaults(), d.Options())
	if err := checkBounds(merged); err != nil {
		return nil, fmt.Errorf("configured defaults: %w", err)
	}
	return &Resolver{defaults: merged}, nil
}

// Resolve returns the effective options for one calculation.
func (r *Resolver) Resolve(opts models.CalculationOptions) (models.CalculationOptions, error) {
	effective := merge(r.defaults, opts)
	if err := checkBounds(effective); err != nil {
		return models.CalculationOptions{}, err
	}
	return effective, nil
}

// Defaults returns the resolver's fully-merged default options.
func (r *Resolver) Defaults() models.CalculationOptions {
	return merge(r.defaults, models.CalculationOptions{})
}

// merge lays override on top of base. Slices are copied so the result never
// aliases caller memory.
func merge(base, override models.CalculationOptions) models.CalculationOptions {
	out := base

	if len(override.Methods) > 0 {
		out.Methods = override.Methods
	}
	out.Methods = append([]models.PivotMethod(nil), out.Methods...)

	if override.ATRPeriod != 0 {
		out.ATRPeriod = override.ATRPeriod
	}
	if override.ATRMethod != "" {
		out.ATRMethod = override.ATRMethod
	}
	if override.Lookback != 0 {
		out.Lookback = override.Lookback
	}
	if len(override.ZoneMultipliers) > 0 {
		out.ZoneMultipliers = override.ZoneMultipliers
	}
	out.ZoneMultipliers = append([]float64(nil), out.ZoneMultipliers...)

	out.EnableGamma = base.EnableGamma || override.EnableGamma
	out.EnableSignificance = base.EnableSignificance || override.EnableSignificance
	out.EnablePerformance = base.EnablePerformance || override.EnablePerformance

	if override.CacheTTL != 0 {
		out.CacheTTL = override.CacheTTL
	}
	if override.Precision != 0 {
		out.Precision = override.Precision
	}
	return out
}

// checkBounds enforces the documented option bounds on a fully-merged set.
func checkBounds(opts models.CalculationOptions) error {
	if len(opts.Methods) == 0 {
		return fmt.Errorf("no pivot methods selected: %w", models.ErrConfigurationInvalid)
	}
	seen := make(map[models.PivotMethod]bool, len(opts.Methods))
	for _, m := range opts.Methods {
		if !m.Valid() {
			return fmt.Errorf("unknown pivot method %q: %w", m, models.ErrConfigurationInvalid)
		}
		if seen[m] {
			return fmt.Errorf("duplicate pivot method %q: %w", m, models.ErrConfigurationInvalid)
		}
		seen[m] = true
	}
	if !opts.ATRMethod.Valid() {
		return fmt.Errorf("unknown smoothing method %q: %w", opts.ATRMethod, models.ErrConfigurationInvalid)
	}
	if opts.ATRPeriod < models.DefaultMinATRPeriod || opts.ATRPeriod > models.DefaultMaxATRPeriod {
		return fmt.Errorf("atr period %d outside [%d, %d]: %w",
			opts.ATRPeriod, models.DefaultMinATRPeriod, models.DefaultMaxATRPeriod, models.ErrConfigurationInvalid)
	}
	if opts.Lookback < models.MinLookback {
		return fmt.Errorf("lookback %d below minimum %d: %w", opts.Lookback, models.MinLookback, models.ErrConfigurationInvalid)
	}
	if len(opts.ZoneMultipliers) == 0 {
		return fmt.Errorf("no zone multipliers: %w", models.ErrConfigurationInvalid)
	}
	for _, m := range opts.ZoneMultipliers {
		if m <= 0 || m > models.MaxZoneMultiplier {
			return fmt.Errorf("zone multiplier %v outside (0, %v]: %w", m, models.MaxZoneMultiplier, models.ErrConfigurationInvalid)
		}
	}
	if opts.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl %s must be positive: %w", opts.CacheTTL, models.ErrConfigurationInvalid)
	}
	if opts.Precision < 0 || opts.Precision > models.MaxPrecision {
		return fmt.Errorf("precision %d outside [0, %d]: %w", opts.Precision, models.MaxPrecision, models.ErrConfigurationInvalid)
	}
	return nil
}
