package quant

import (
	"math"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// reliabilityCapTouches is the touch count at which reliability saturates.
const reliabilityCapTouches = 10

// hitBandFraction is the relative distance within which a close counts as a
// hit on the level.
const hitBandFraction = 0.02

// QualityScores grades every level of every set against the observed
// series: reliability from the touch count (capped at 1.0 after 10
// touches), strength from the inverse normalized distance to the mean
// close, a 95% Gaussian interval around the level, and the fraction of
// closes within 2% as the hit probability.
func QualityScores(bars []models.Bar, sets []models.LevelSet, precision int) []models.QualityScore {
	if len(bars) == 0 {
		return nil
	}

	closes := models.Closes(bars)
	meanClose := Mean(closes)
	sd := StdDev(closes)
	n := float64(len(closes))

	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	span := hi - lo

	halfCI := 1.96 * sd / math.Sqrt(n)

	var scores []models.QualityScore
	for _, set := range sets {
		for _, lv := range set.All() {
			touches := CountTouches(bars, lv.Price)

			strength := 1.0
			if span > 0 {
				strength = 1 - math.Abs(lv.Price-meanClose)/span
				strength = math.Max(0, math.Min(1, strength))
			} else if lv.Price != meanClose {
				strength = 0
			}

			hits := 0
			if lv.Price > 0 {
				for _, c := range closes {
					if math.Abs(c-lv.Price)/lv.Price <= hitBandFraction {
						hits++
					}
				}
			}

			scores = append(scores, models.QualityScore{
				Method:         set.Method,
				Level:          lv.Name,
				Price:          lv.Price,
				Touches:        touches,
				Reliability:    Round(math.Min(1, float64(touches)/reliabilityCapTouches), precision),
				Strength:       Round(strength, precision),
				ConfidenceLow:  Round(lv.Price-halfCI, precision),
				ConfidenceHigh: Round(lv.Price+halfCI, precision),
				HitProbability: Round(float64(hits)/n, precision),
			})
		}
	}
	return scores
}
