package quant

import (
	"fmt"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// BuildZones brackets every level of every set with bands at
// level +/- atr*multiplier, one band per configured multiplier. The attached
// probability is P(|Z| <= m) = CDF(m) - CDF(-m) under the assumption that
// one ATR approximates one standard deviation of the next move. Fails with
// ErrConfigurationInvalid when a multiplier is outside (0, 5] and
// ErrInvalidInput for a negative ATR.
func BuildZones(sets []models.LevelSet, atr float64, multipliers []float64, precision int) ([]models.ProbabilityZone, error) {
	if atr < 0 {
		return nil, fmt.Errorf("ATR must be non-negative, got %v: %w", atr, models.ErrInvalidInput)
	}
	for _, m := range multipliers {
		if m <= 0 || m > models.MaxZoneMultiplier {
			return nil, fmt.Errorf("zone multiplier %v outside (0, %v]: %w", m, models.MaxZoneMultiplier, models.ErrConfigurationInvalid)
		}
	}

	var zones []models.ProbabilityZone
	for _, set := range sets {
		for _, lv := range set.All() {
			for _, m := range multipliers {
				half := atr * m
				zones = append(zones, models.ProbabilityZone{
					Method:      set.Method,
					Level:       lv.Name,
					Price:       lv.Price,
					Multiplier:  m,
					Lower:       Round(lv.Price-half, precision),
					Upper:       Round(lv.Price+half, precision),
					Probability: Round(NormalCDF(m)-NormalCDF(-m), precision),
				})
			}
		}
	}
	return zones, nil
}
