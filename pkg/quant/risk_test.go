package quant

import (
	"errors"
	"math"
	"testing"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// alternating builds n returns flipping between a and b.
func alternating(n int, a, b float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = a
		} else {
			out[i] = b
		}
	}
	return out
}

// ── Volatility ──

func TestVolatilityKnownSeries(t *testing.T) {
	returns := alternating(40, 0.01, -0.01)
	v, err := Volatility(returns, 8)
	if err != nil {
		t.Fatalf("Volatility error: %v", err)
	}
	wantDaily := 0.01 * math.Sqrt(40.0/39) // sample stddev of +/-0.01
	if math.Abs(v.Daily-wantDaily) > 1e-6 {
		t.Errorf("Daily: got %.8f, want %.8f", v.Daily, wantDaily)
	}
	wantAnn := wantDaily * math.Sqrt(252)
	if math.Abs(v.Annualized-wantAnn) > 1e-4 {
		t.Errorf("Annualized: got %.6f, want %.6f", v.Annualized, wantAnn)
	}
	if v.ImpliedPremium <= 0 {
		t.Errorf("ImpliedPremium: got %.6f, want > 0", v.ImpliedPremium)
	}
}

func TestVolatilityFlatSeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	returns, err := LogReturns(closes)
	if err != nil {
		t.Fatalf("LogReturns error: %v", err)
	}
	v, err := Volatility(returns, 8)
	if err != nil {
		t.Fatalf("Volatility error: %v", err)
	}
	if v.Daily != 0 || v.Annualized != 0 {
		t.Errorf("flat series volatility: got daily=%.8f ann=%.8f, want 0/0", v.Daily, v.Annualized)
	}
	if v.Regime != models.RegimeNormal {
		t.Errorf("flat series regime: got %s, want NORMAL", v.Regime)
	}
}

func TestVolatilityInsufficientData(t *testing.T) {
	if _, err := Volatility([]float64{0.01}, 8); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestClassifyRegimeShift(t *testing.T) {
	// Calm history, violent tail: the current window sits above the 75th
	// percentile of rolling vols.
	up := append(alternating(60, 0.001, -0.001), alternating(30, 0.05, -0.05)...)
	if got := ClassifyRegime(up); got != models.RegimeHigh {
		t.Errorf("vol expansion: got %s, want HIGH", got)
	}

	// Violent history, calm tail.
	down := append(alternating(60, 0.05, -0.05), alternating(30, 0.001, -0.001)...)
	if got := ClassifyRegime(down); got != models.RegimeLow {
		t.Errorf("vol compression: got %s, want LOW", got)
	}

	if got := ClassifyRegime(alternating(90, 0.01, -0.01)); got != models.RegimeNormal {
		t.Errorf("steady vol: got %s, want NORMAL", got)
	}
}

// ── Drawdown ──

func TestDrawdown(t *testing.T) {
	closes := []float64{100, 120, 90, 100, 80}
	dd := Drawdown(closes, 8)
	// Deepest decline: 120 -> 80.
	if math.Abs(dd.Max-1.0/3) > 1e-6 {
		t.Errorf("Max: got %.8f, want %.8f", dd.Max, 1.0/3)
	}
	if math.Abs(dd.Current-1.0/3) > 1e-6 {
		t.Errorf("Current: got %.8f, want %.8f", dd.Current, 1.0/3)
	}
	if dd.MaxDuration != 3 {
		t.Errorf("MaxDuration: got %d, want 3", dd.MaxDuration)
	}
}

func TestDrawdownMonotonicRise(t *testing.T) {
	dd := Drawdown([]float64{100, 101, 102, 103}, 8)
	if dd.Max != 0 || dd.Current != 0 || dd.MaxDuration != 0 {
		t.Errorf("rising series: got %+v, want zero drawdown", dd)
	}
}

func TestDrawdownEmpty(t *testing.T) {
	if dd := Drawdown(nil, 8); dd.Max != 0 {
		t.Errorf("empty series: got %+v", dd)
	}
}

// ── Value at Risk ──

func TestParametricVaR(t *testing.T) {
	returns := alternating(40, 0.01, -0.01)
	v, err := ParametricVaR(returns, 0.95, 8)
	if err != nil {
		t.Fatalf("ParametricVaR error: %v", err)
	}
	// Zero mean: VaR = 1.6449 * sample stddev.
	want := 1.6448536 * 0.01 * math.Sqrt(40.0/39)
	if math.Abs(v-want) > 1e-4 {
		t.Errorf("VaR95: got %.6f, want %.6f", v, want)
	}
}

func TestHistoricalVaR(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.01, 0.03}
	v, err := HistoricalVaR(returns, 0.75, 8)
	if err != nil {
		t.Fatalf("HistoricalVaR error: %v", err)
	}
	// 25th percentile of sorted returns interpolates to -0.0275.
	if v != 0.0275 {
		t.Errorf("VaR75: got %.6f, want 0.0275", v)
	}
}

func TestMonteCarloVaRDeterminism(t *testing.T) {
	returns := alternating(100, 0.012, -0.01)
	a, err := MonteCarloVaR(returns, 0.95, 10000, 42, 8)
	if err != nil {
		t.Fatalf("MonteCarloVaR error: %v", err)
	}
	b, err := MonteCarloVaR(returns, 0.95, 10000, 42, 8)
	if err != nil {
		t.Fatalf("MonteCarloVaR error: %v", err)
	}
	if a != b {
		t.Errorf("same seed should reproduce the estimate: %.8f vs %.8f", a, b)
	}
}

func TestMonteCarloVaRMatchesParametric(t *testing.T) {
	// On a clean normal sample the simulated quantile has to land near the
	// closed-form estimate.
	src := NewNormalSampler(99)
	returns := make([]float64, 500)
	for i := range returns {
		returns[i] = 0.01 * src.Next()
	}

	parametric, err := ParametricVaR(returns, 0.95, 8)
	if err != nil {
		t.Fatalf("ParametricVaR error: %v", err)
	}
	mc, err := MonteCarloVaR(returns, 0.95, 10000, 42, 8)
	if err != nil {
		t.Fatalf("MonteCarloVaR error: %v", err)
	}
	if parametric <= 0 || mc <= 0 {
		t.Fatalf("estimates should be positive: parametric=%.6f mc=%.6f", parametric, mc)
	}
	if rel := math.Abs(mc-parametric) / parametric; rel > 0.10 {
		t.Errorf("Monte Carlo VaR %.6f deviates %.1f%% from parametric %.6f", mc, rel*100, parametric)
	}
}

func TestVaRProfile(t *testing.T) {
	src := NewNormalSampler(3)
	returns := make([]float64, 300)
	for i := range returns {
		returns[i] = 0.015 * src.Next()
	}
	est, err := VaRProfile(returns, 0.99, 10000, 42, 8)
	if err != nil {
		t.Fatalf("VaRProfile error: %v", err)
	}
	if est.Parametric <= 0 || est.Historical <= 0 || est.MonteCarlo <= 0 {
		t.Errorf("all estimators should be positive: %+v", est)
	}
	// 99% VaR exceeds 95% VaR for the same series.
	lower, err := VaRProfile(returns, 0.95, 10000, 42, 8)
	if err != nil {
		t.Fatalf("VaRProfile error: %v", err)
	}
	if est.Parametric <= lower.Parametric {
		t.Errorf("VaR99 %.6f should exceed VaR95 %.6f", est.Parametric, lower.Parametric)
	}
}

func TestVaRInputChecks(t *testing.T) {
	if _, err := ParametricVaR([]float64{0.01}, 0.95, 8); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := HistoricalVaR(alternating(10, 0.01, -0.01), 1.5, 8); !errors.Is(err, models.ErrConfigurationInvalid) {
		t.Errorf("expected ErrConfigurationInvalid, got %v", err)
	}
}

// ── Market Proxy & Performance ──

func TestMarketProxy(t *testing.T) {
	cases := []struct {
		vol      float64
		wantBeta float64
		wantCorr float64
	}{
		{0.16, 1, 1},
		{0.08, 0.5, 0.5},
		{0.32, 2, 0.5},
		{0, 0, 0},
	}
	for _, c := range cases {
		got := MarketProxy(c.vol, 8)
		if math.Abs(got.Beta-c.wantBeta) > 1e-9 {
			t.Errorf("MarketProxy(%v).Beta: got %.4f, want %.4f", c.vol, got.Beta, c.wantBeta)
		}
		if math.Abs(got.Correlation-c.wantCorr) > 1e-9 {
			t.Errorf("MarketProxy(%v).Correlation: got %.4f, want %.4f", c.vol, got.Correlation, c.wantCorr)
		}
	}
}

func TestPerformanceRatios(t *testing.T) {
	returns := alternating(40, 0.02, -0.005)
	annVol := StdDev(returns) * math.Sqrt(252)
	market := MarketProxy(annVol, 8)

	rs, err := PerformanceRatios(returns, 0.10, market, 8)
	if err != nil {
		t.Fatalf("PerformanceRatios error: %v", err)
	}
	if rs.Sharpe <= 0 {
		t.Errorf("Sharpe in a profitable series: got %.4f, want > 0", rs.Sharpe)
	}
	if rs.Sortino <= 0 {
		t.Errorf("Sortino with losing days present: got %.4f, want > 0", rs.Sortino)
	}
	if rs.Calmar <= 0 {
		t.Errorf("Calmar with positive return and drawdown: got %.4f, want > 0", rs.Calmar)
	}
	if rs.Beta != market.Beta {
		t.Errorf("Beta should pass through the market proxy: got %.4f, want %.4f", rs.Beta, market.Beta)
	}
	if rs.TrackingError <= 0 {
		t.Errorf("TrackingError: got %.4f, want > 0", rs.TrackingError)
	}
	if rs.Alpha <= 0 {
		t.Errorf("Alpha for a strongly outperforming series: got %.4f, want > 0", rs.Alpha)
	}
}

func TestPerformanceRatiosFlatSeries(t *testing.T) {
	returns := make([]float64, 30)
	rs, err := PerformanceRatios(returns, 0, MarketProxy(0, 8), 8)
	if err != nil {
		t.Fatalf("PerformanceRatios error: %v", err)
	}
	if rs.Sharpe != 0 || rs.Sortino != 0 || rs.Calmar != 0 {
		t.Errorf("flat series ratios should be zero: %+v", rs)
	}
	// Tracking error against the assumed market is the market vol itself.
	if math.Abs(rs.TrackingError-AssumedMarketVol) > 1e-9 {
		t.Errorf("TrackingError: got %.4f, want %.4f", rs.TrackingError, AssumedMarketVol)
	}
}

func TestPerformanceRatiosInsufficientData(t *testing.T) {
	if _, err := PerformanceRatios([]float64{0.01}, 0, MarketProxy(0.2, 8), 8); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
