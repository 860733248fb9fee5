package quant

import (
	"math"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// gammaBandFraction is the relative half-width of the Gaussian proximity
// kernel around each level.
const gammaBandFraction = 0.01

// GammaProfile estimates volume-weighted exposure around each level: every
// bar contributes its volume scaled by a Gaussian kernel of the distance
// between the bar's typical price and the level. Levels above the last
// close accumulate positive (call-side) exposure, levels below negative
// (put-side). When the series carries no volume at all the estimate
// degrades to equal bar weighting and the result is flagged Degraded.
func GammaProfile(bars []models.Bar, sets []models.LevelSet, precision int) models.GammaExposure {
	out := models.GammaExposure{}
	if len(bars) == 0 || len(sets) == 0 {
		return out
	}

	hasVolume := false
	for _, b := range bars {
		if b.HasVolume() {
			hasVolume = true
			break
		}
	}
	out.Degraded = !hasVolume

	lastClose := bars[len(bars)-1].Close
	gross := 0.0

	for _, set := range sets {
		for _, lv := range set.All() {
			if lv.Price <= 0 {
				continue
			}
			band := lv.Price * gammaBandFraction
			exposure := 0.0
			for _, b := range bars {
				tp := (b.High + b.Low + b.Close) / 3
				d := (tp - lv.Price) / band
				w := math.Exp(-d * d)
				if hasVolume {
					exposure += b.Volume * w
				} else {
					exposure += w
				}
			}
			out.Levels = append(out.Levels, models.LevelGamma{
				Method:   set.Method,
				Level:    lv.Name,
				Price:    lv.Price,
				Exposure: Round(exposure, precision),
			})
			gross += exposure
			if lv.Price >= lastClose {
				out.Net += exposure
			} else {
				out.Net -= exposure
			}
		}
	}

	if gross > 0 {
		out.Normalized = Round(out.Net/gross, precision)
	}
	out.Net = Round(out.Net, precision)
	return out
}
