package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// ── Bar Tests ──

func TestBarJSONRoundtrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	bar := Bar{
		Timestamp: now,
		Open:      102.0,
		High:      110.0,
		Low:       100.0,
		Close:     105.0,
		Volume:    250000,
	}
	if bar.High < bar.Low {
		t.Error("High should be >= Low")
	}
	if bar.Close < bar.Low || bar.Close > bar.High {
		t.Error("Close should be between Low and High")
	}
	data, err := json.Marshal(bar)
	if err != nil {
		t.Fatalf("json.Marshal(Bar) error: %v", err)
	}
	var decoded Bar
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(Bar) error: %v", err)
	}
	if !decoded.Timestamp.Equal(now) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, now)
	}
	if decoded.Range() != 10.0 {
		t.Errorf("Range: got %f, want 10.0", decoded.Range())
	}
}

func TestBarOptionalFields(t *testing.T) {
	bar := Bar{High: 110, Low: 100, Close: 105}
	if bar.HasOpen() {
		t.Error("HasOpen should be false for zero open")
	}
	if bar.HasVolume() {
		t.Error("HasVolume should be false for zero volume")
	}
	if bar.HasTimestamp() {
		t.Error("HasTimestamp should be false for zero timestamp")
	}
}

func TestLastBars(t *testing.T) {
	bars := make([]Bar, 10)
	for i := range bars {
		bars[i] = Bar{High: float64(100 + i), Low: float64(90 + i), Close: float64(95 + i)}
	}
	tail := LastBars(bars, 5)
	if len(tail) != 5 {
		t.Fatalf("LastBars(10, 5): got %d bars, want 5", len(tail))
	}
	if tail[0].Close != bars[5].Close {
		t.Errorf("first tail bar: got close %f, want %f", tail[0].Close, bars[5].Close)
	}
	if got := LastBars(bars, 20); len(got) != 10 {
		t.Errorf("LastBars(10, 20): got %d bars, want 10", len(got))
	}
	if got := LastBars(bars, 0); got != nil {
		t.Errorf("LastBars(10, 0): got %d bars, want nil", len(got))
	}
}

func TestCloses(t *testing.T) {
	bars := []Bar{
		{High: 110, Low: 100, Close: 105},
		{High: 112, Low: 102, Close: 108},
	}
	closes := Closes(bars)
	if len(closes) != 2 || closes[0] != 105 || closes[1] != 108 {
		t.Errorf("Closes: got %v, want [105 108]", closes)
	}
}

// ── Enum Tests ──

func TestPivotMethodConstants(t *testing.T) {
	methods := map[PivotMethod]string{
		PivotStandard:  "standard",
		PivotFibonacci: "fibonacci",
		PivotCamarilla: "camarilla",
		PivotWoodie:    "woodie",
		PivotDeMark:    "demark",
	}
	for m, expected := range methods {
		if string(m) != expected {
			t.Errorf("PivotMethod %v: got %q, want %q", m, string(m), expected)
		}
		if !m.Valid() {
			t.Errorf("PivotMethod %q should be valid", m)
		}
	}
	if PivotMethod("fib").Valid() {
		t.Error("unknown method should not be valid")
	}
	if got := len(AllPivotMethods()); got != 5 {
		t.Errorf("AllPivotMethods: got %d methods, want 5", got)
	}
}

func TestSmoothingMethodConstants(t *testing.T) {
	methods := map[SmoothingMethod]string{
		SmoothingWilder: "wilder",
		SmoothingEMA:    "ema",
		SmoothingSMA:    "sma",
	}
	for m, expected := range methods {
		if string(m) != expected {
			t.Errorf("SmoothingMethod %v: got %q, want %q", m, string(m), expected)
		}
		if !m.Valid() {
			t.Errorf("SmoothingMethod %q should be valid", m)
		}
	}
	if SmoothingMethod("hull").Valid() {
		t.Error("unknown smoothing should not be valid")
	}
}

func TestVolatilityRegimeConstants(t *testing.T) {
	regimes := map[VolatilityRegime]string{
		RegimeLow:    "LOW",
		RegimeNormal: "NORMAL",
		RegimeHigh:   "HIGH",
	}
	for r, expected := range regimes {
		if string(r) != expected {
			t.Errorf("VolatilityRegime %v: got %q, want %q", r, string(r), expected)
		}
	}
}

// ── LevelSet Tests ──

func TestLevelSetAll(t *testing.T) {
	ls := LevelSet{
		Method: PivotStandard,
		PP:     100,
		Resistances: []Level{
			{Name: "R1", Price: 105},
			{Name: "R2", Price: 110},
		},
		Supports: []Level{
			{Name: "S1", Price: 95},
			{Name: "S2", Price: 90},
		},
	}
	all := ls.All()
	if len(all) != 5 {
		t.Fatalf("All: got %d levels, want 5", len(all))
	}
	if all[0].Name != "PP" || all[0].Price != 100 {
		t.Errorf("first level: got %s=%f, want PP=100", all[0].Name, all[0].Price)
	}
	if price, ok := ls.Lookup("S2"); !ok || price != 90 {
		t.Errorf("Lookup(S2): got %f/%v, want 90/true", price, ok)
	}
	if _, ok := ls.Lookup("R9"); ok {
		t.Error("Lookup(R9) should not resolve")
	}
}

func TestAnalysisResultJSON(t *testing.T) {
	result := AnalysisResult{
		Meta: ResultMeta{
			ComputedAt: time.Now(),
			Bars:       60,
			Options:    CalculationOptions{ATRPeriod: 14, ATRMethod: SmoothingWilder},
		},
		Levels: map[PivotMethod]LevelSet{
			PivotStandard: {
				Method:      PivotStandard,
				PP:          105,
				Resistances: []Level{{Name: "R1", Price: 110}},
				Supports:    []Level{{Name: "S1", Price: 100}},
			},
		},
		Risk: RiskReport{
			Volatility: VolatilityReport{Daily: 0.012, Annualized: 0.19, Regime: RegimeNormal},
			VaR95:      VaREstimates{Parametric: 0.018, Historical: 0.017, MonteCarlo: 0.019},
		},
	}
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("json.Marshal(AnalysisResult) error: %v", err)
	}
	var decoded AnalysisResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(AnalysisResult) error: %v", err)
	}
	if decoded.Levels[PivotStandard].PP != 105 {
		t.Errorf("PP: got %f, want 105", decoded.Levels[PivotStandard].PP)
	}
	if decoded.Risk.Volatility.Regime != RegimeNormal {
		t.Errorf("Regime: got %q, want %q", decoded.Risk.Volatility.Regime, RegimeNormal)
	}
	if decoded.Performance != nil {
		t.Error("Performance should stay nil through a round trip when unset")
	}
}

// ── Error Tests ──

func TestValidationErrorUnwrap(t *testing.T) {
	verr := &ValidationError{
		Errors:   []string{"bar 3: high < low"},
		Warnings: []string{"bar 7: zero volume"},
		Quality:  0.6,
	}
	if !errors.Is(verr, ErrValidationFailed) {
		t.Error("ValidationError should match ErrValidationFailed")
	}
	wrapped := &ValidationError{Errors: []string{"a", "b"}}
	if wrapped.Error() != "validation failed: 2 errors, 0 warnings" {
		t.Errorf("Error(): got %q", wrapped.Error())
	}
}

func TestErrorKindsDistinct(t *testing.T) {
	kinds := []error{
		ErrInvalidInput,
		ErrInsufficientData,
		ErrValidationFailed,
		ErrConfigurationInvalid,
		ErrCalculationFailed,
	}
	for i, a := range kinds {
		for j, b := range kinds {
			if i != j && errors.Is(a, b) {
				t.Errorf("error kinds %d and %d should be distinct", i, j)
			}
		}
	}
}
