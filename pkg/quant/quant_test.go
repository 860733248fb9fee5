package quant

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// makeBars generates synthetic OHLCV bars for testing.
func makeBars(n int, basePrice, trend float64) []models.Bar {
	bars := make([]models.Bar, n)
	price := basePrice
	for i := 0; i < n; i++ {
		open := price
		close := open + trend
		high := math.Max(open, close) + 3
		low := math.Min(open, close) - 3
		bars[i] = models.Bar{
			Timestamp: time.Now().Add(time.Duration(-n+i) * 24 * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    1000000 + float64(i*10000),
		}
		price = close
	}
	return bars
}

// flatBars generates n identical bars with open=high=low=close=price.
func flatBars(n int, price float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = models.Bar{Open: price, High: price, Low: price, Close: price}
	}
	return bars
}

// rangeBars repeats a single {high, low, close} bar n times.
func rangeBars(n int, high, low, close float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = models.Bar{High: high, Low: low, Close: close}
	}
	return bars
}

// ── True Range ──

func TestTrueRange(t *testing.T) {
	bars := rangeBars(5, 110, 100, 105)
	tr, err := TrueRange(bars)
	if err != nil {
		t.Fatalf("TrueRange error: %v", err)
	}
	if len(tr) != 4 {
		t.Fatalf("expected 4 true ranges for 5 bars, got %d", len(tr))
	}
	for i, v := range tr {
		if v != 10 {
			t.Errorf("tr[%d]: got %.4f, want 10", i, v)
		}
	}
}

func TestTrueRangeGap(t *testing.T) {
	// Gap up: previous close far below today's low.
	bars := []models.Bar{
		{High: 102, Low: 98, Close: 100},
		{High: 112, Low: 108, Close: 110},
	}
	tr, err := TrueRange(bars)
	if err != nil {
		t.Fatalf("TrueRange error: %v", err)
	}
	// max(112-108, |112-100|, |108-100|) = 12
	if tr[0] != 12 {
		t.Errorf("gap true range: got %.4f, want 12", tr[0])
	}
}

func TestTrueRangeTooFewBars(t *testing.T) {
	_, err := TrueRange(rangeBars(1, 110, 100, 105))
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for 1 bar, got %v", err)
	}
}

func TestTrueRangeMalformedBar(t *testing.T) {
	bars := rangeBars(5, 110, 100, 105)
	bars[2].Low = 120 // low above high
	_, err := TrueRange(bars)
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for low > high, got %v", err)
	}

	bars = rangeBars(5, 110, 100, 105)
	bars[3].Close = 115 // close above high
	if _, err := TrueRange(bars); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for close outside range, got %v", err)
	}

	bars = rangeBars(5, 110, 100, 105)
	bars[1].High = math.NaN()
	if _, err := TrueRange(bars); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for NaN field, got %v", err)
	}
}

// ── ATR ──

func TestATRWilderConstantSeries(t *testing.T) {
	// The documented reference case: a constant 10-point true range smoothed
	// with wilder(14) stays exactly 10 after the seed.
	bars := rangeBars(20, 110, 100, 105)
	tr, err := TrueRange(bars)
	if err != nil {
		t.Fatalf("TrueRange error: %v", err)
	}
	atr, err := ATR(tr, 14, models.SmoothingWilder, 8)
	if err != nil {
		t.Fatalf("ATR error: %v", err)
	}
	if want := len(tr) - 14 + 1; len(atr.Series) != want {
		t.Fatalf("expected series of %d, got %d", want, len(atr.Series))
	}
	for i, v := range atr.Series {
		if v != 10 {
			t.Errorf("atr[%d]: got %.8f, want 10", i, v)
		}
	}
	if atr.Current != 10 {
		t.Errorf("Current: got %.8f, want 10", atr.Current)
	}
	if atr.Stats.StdDev != 0 {
		t.Errorf("StdDev of constant series: got %.8f, want 0", atr.Stats.StdDev)
	}
}

func TestATRSmoothingValues(t *testing.T) {
	tr := []float64{1, 2, 3, 4}

	sma, err := ATR(tr, 2, models.SmoothingSMA, 8)
	if err != nil {
		t.Fatalf("sma error: %v", err)
	}
	wantSMA := []float64{1.5, 2.5, 3.5}
	for i, w := range wantSMA {
		if sma.Series[i] != w {
			t.Errorf("sma[%d]: got %.4f, want %.4f", i, sma.Series[i], w)
		}
	}

	ema, err := ATR(tr, 2, models.SmoothingEMA, 8)
	if err != nil {
		t.Fatalf("ema error: %v", err)
	}
	// k=2/3, seeded at 1.5: 3*(2/3)+1.5/3 = 2.5, then 4*(2/3)+2.5/3 = 3.5
	wantEMA := []float64{1.5, 2.5, 3.5}
	for i, w := range wantEMA {
		if math.Abs(ema.Series[i]-w) > 1e-9 {
			t.Errorf("ema[%d]: got %.6f, want %.4f", i, ema.Series[i], w)
		}
	}

	wilder, err := ATR(tr, 2, models.SmoothingWilder, 8)
	if err != nil {
		t.Fatalf("wilder error: %v", err)
	}
	// seeded at 1.5: 1.5+(3-1.5)/2 = 2.25, then 2.25+(4-2.25)/2 = 3.125
	wantWilder := []float64{1.5, 2.25, 3.125}
	for i, w := range wantWilder {
		if wilder.Series[i] != w {
			t.Errorf("wilder[%d]: got %.6f, want %.4f", i, wilder.Series[i], w)
		}
	}
}

func TestATRSeriesLengthAndSign(t *testing.T) {
	bars := makeBars(40, 100, 0.8)
	tr, err := TrueRange(bars)
	if err != nil {
		t.Fatalf("TrueRange error: %v", err)
	}
	for _, method := range []models.SmoothingMethod{models.SmoothingSMA, models.SmoothingEMA, models.SmoothingWilder} {
		atr, err := ATR(tr, 5, method, 8)
		if err != nil {
			t.Fatalf("ATR(%s) error: %v", method, err)
		}
		if want := len(tr) - 5 + 1; len(atr.Series) != want {
			t.Errorf("ATR(%s): series length %d, want %d", method, len(atr.Series), want)
		}
		for i, v := range atr.Series {
			if v < 0 {
				t.Errorf("ATR(%s)[%d]: negative value %.6f", method, i, v)
			}
		}
		if atr.Percentiles.P10 > atr.Percentiles.P90 {
			t.Errorf("ATR(%s): P10 %.4f above P90 %.4f", method, atr.Percentiles.P10, atr.Percentiles.P90)
		}
	}
}

func TestATRInsufficientData(t *testing.T) {
	tr := []float64{1, 2, 3}
	_, err := ATR(tr, 14, models.SmoothingWilder, 8)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestATRUnknownMethod(t *testing.T) {
	tr := []float64{1, 2, 3, 4, 5}
	_, err := ATR(tr, 2, models.SmoothingMethod("hull"), 8)
	if !errors.Is(err, models.ErrConfigurationInvalid) {
		t.Errorf("expected ErrConfigurationInvalid, got %v", err)
	}
}

// ── Statistics Helpers ──

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		v         float64
		precision int
		want      float64
	}{
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{1.25, 1, 1.3},
		{-1.25, 1, -1.3},
		{1.23456789, 4, 1.2346},
		{100, 8, 100},
	}
	for _, c := range cases {
		if got := Round(c.v, c.precision); got != c.want {
			t.Errorf("Round(%v, %d): got %v, want %v", c.v, c.precision, got, c.want)
		}
	}
	if !math.IsNaN(Round(math.NaN(), 2)) {
		t.Error("Round should pass NaN through")
	}
}

func TestMeanMedianStdDev(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(data); got != 5 {
		t.Errorf("Mean: got %.4f, want 5", got)
	}
	if got := Median(data); got != 4.5 {
		t.Errorf("Median: got %.4f, want 4.5", got)
	}
	// Sample variance of this classic series is 32/7.
	if got := Variance(data); math.Abs(got-32.0/7) > 1e-12 {
		t.Errorf("Variance: got %.6f, want %.6f", got, 32.0/7)
	}
}

func TestPercentileInterpolation(t *testing.T) {
	data := []float64{10, 20, 30, 40}
	if got := Percentile(data, 50); got != 25 {
		t.Errorf("P50: got %.4f, want 25", got)
	}
	if got := Percentile(data, 0); got != 10 {
		t.Errorf("P0: got %.4f, want 10", got)
	}
	if got := Percentile(data, 100); got != 40 {
		t.Errorf("P100: got %.4f, want 40", got)
	}
	if got := Percentile(data, 25); got != 17.5 {
		t.Errorf("P25: got %.4f, want 17.5", got)
	}
}

func TestPercentRank(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	if got := PercentRank(data, 3); got != 0.6 {
		t.Errorf("PercentRank(3): got %.4f, want 0.6", got)
	}
	if got := PercentRank(data, 10); got != 1 {
		t.Errorf("PercentRank(10): got %.4f, want 1", got)
	}
	if got := PercentRank(data, 0); got != 0 {
		t.Errorf("PercentRank(0): got %.4f, want 0", got)
	}
}

func TestZScoresConstantSeries(t *testing.T) {
	zs := ZScores([]float64{5, 5, 5, 5})
	for i, z := range zs {
		if z != 0 {
			t.Errorf("z[%d]: got %.4f, want 0 for constant series", i, z)
		}
	}
}

func TestLogReturns(t *testing.T) {
	rets, err := LogReturns([]float64{100, 110})
	if err != nil {
		t.Fatalf("LogReturns error: %v", err)
	}
	if math.Abs(rets[0]-math.Log(1.1)) > 1e-12 {
		t.Errorf("log return: got %.8f, want %.8f", rets[0], math.Log(1.1))
	}

	if _, err := LogReturns([]float64{100}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for single close, got %v", err)
	}
	if _, err := LogReturns([]float64{100, 0, 100}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero price, got %v", err)
	}
}

func TestSkewnessAndKurtosisSymmetric(t *testing.T) {
	data := []float64{-2, -1, 0, 1, 2}
	if got := Skewness(data); math.Abs(got) > 1e-12 {
		t.Errorf("Skewness of symmetric series: got %.6f, want 0", got)
	}
	if got := ExcessKurtosis([]float64{1, 1, 1}); got != 0 {
		t.Errorf("ExcessKurtosis below minimum length: got %.4f, want 0", got)
	}
}
