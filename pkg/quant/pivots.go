// Package quant implements the numeric models behind PivotQuant: true-range
// and ATR smoothing, five pivot-point methodologies, probability zones,
// volume-weighted exposure, significance testing, risk and performance
// estimators, and shared normal-distribution primitives. All functions are
// stateless per call; the only package state is a pair of small read-mostly
// caches (a quantized normal-CDF table and a factorial table) built when the
// package loads.
package quant

import (
	"fmt"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// fibRatios are the retracement/extension multiples applied to the bar range
// on either side of the pivot, ascending.
var fibRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786, 1.0, 1.272, 1.618}

// camarillaTiers are the range multipliers for camarilla levels 1-4.
var camarillaTiers = []float64{1.1 / 12, 1.1 / 6, 1.1 / 4, 1.1 / 2}

// PivotLevels computes the level set of one methodology from the most recent
// (basis) bar. sessionOpen, when positive, overrides the bar's own open for
// the DeMark basis selection; with neither available DeMark falls back to
// its neutral branch. Fails with ErrInvalidInput for a malformed bar and
// ErrConfigurationInvalid for an unknown method.
func PivotLevels(method models.PivotMethod, basis models.Bar, sessionOpen float64, precision int) (models.LevelSet, error) {
	if err := checkBar(0, basis); err != nil {
		return models.LevelSet{}, err
	}

	h, l, c := basis.High, basis.Low, basis.Close
	rng := h - l

	ls := models.LevelSet{
		Method: method,
		Basis: models.BarRef{
			Open:      basis.Open,
			High:      h,
			Low:       l,
			Close:     c,
			Timestamp: basis.Timestamp,
		},
	}

	switch method {
	case models.PivotStandard:
		pp := (h + l + c) / 3
		ls.PP = pp
		ls.Resistances = namedLevels("R", 2*pp-l, pp+rng, h+2*(pp-l))
		ls.Supports = namedLevels("S", 2*pp-h, pp-rng, l-2*(h-pp))

	case models.PivotFibonacci:
		pp := (h + l + c) / 3
		ls.PP = pp
		rs := make([]float64, len(fibRatios))
		ss := make([]float64, len(fibRatios))
		for i, f := range fibRatios {
			rs[i] = pp + rng*f
			ss[i] = pp - rng*f
		}
		ls.Resistances = namedLevels("R", rs...)
		ls.Supports = namedLevels("S", ss...)

	case models.PivotCamarilla:
		ls.PP = c
		rs := make([]float64, len(camarillaTiers))
		ss := make([]float64, len(camarillaTiers))
		for i, tier := range camarillaTiers {
			rs[i] = c + rng*tier
			ss[i] = c - rng*tier
		}
		ls.Resistances = namedLevels("R", rs...)
		ls.Supports = namedLevels("S", ss...)

	case models.PivotWoodie:
		pp := (h + l + 2*c) / 4
		ls.PP = pp
		ls.Resistances = namedLevels("R", 2*pp-l, pp+rng)
		ls.Supports = namedLevels("S", 2*pp-h, pp-rng)

	case models.PivotDeMark:
		open := basis.Open
		if sessionOpen > 0 {
			open = sessionOpen
		}
		var x float64
		switch {
		case open > 0 && c < open:
			x = h + 2*l + c
		case open > 0 && c > open:
			x = 2*h + l + c
		default:
			x = h + l + 2*c
		}
		ls.PP = x / 4
		ls.Resistances = namedLevels("R", x/2-l)
		ls.Supports = namedLevels("S", x/2-h)

	default:
		return models.LevelSet{}, fmt.Errorf("unknown pivot method %q: %w", method, models.ErrConfigurationInvalid)
	}

	prices := make([]float64, 0, 1+len(ls.Resistances)+len(ls.Supports))
	prices = append(prices, ls.PP)
	for _, lv := range ls.Resistances {
		prices = append(prices, lv.Price)
	}
	for _, lv := range ls.Supports {
		prices = append(prices, lv.Price)
	}
	if err := checkFinite(fmt.Sprintf("%s pivots", method), prices...); err != nil {
		return models.LevelSet{}, err
	}

	ls.PP = Round(ls.PP, precision)
	for i := range ls.Resistances {
		ls.Resistances[i].Price = Round(ls.Resistances[i].Price, precision)
	}
	for i := range ls.Supports {
		ls.Supports[i].Price = Round(ls.Supports[i].Price, precision)
	}
	return ls, nil
}

// namedLevels builds R1..Rn or S1..Sn from raw prices in tier order.
func namedLevels(prefix string, prices ...float64) []models.Level {
	out := make([]models.Level, len(prices))
	for i, p := range prices {
		out[i] = models.Level{Name: fmt.Sprintf("%s%d", prefix, i+1), Price: p}
	}
	return out
}
