package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

func sampleBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	base := 100.0
	for i := range bars {
		open := base + float64(i)*0.3
		close := open + float64(i%5) - 2
		bars[i] = models.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      math.Max(open, close) + 1.5,
			Low:       math.Min(open, close) - 1.5,
			Close:     close,
			Volume:    float64(10000 + i*250),
		}
	}
	return bars
}

func sampleResult() *models.AnalysisResult {
	standard := models.LevelSet{
		Method: models.PivotStandard,
		PP:     105.00,
		Resistances: []models.Level{
			{Name: "R1", Price: 110.00},
			{Name: "R2", Price: 114.50},
		},
		Supports: []models.Level{
			{Name: "S1", Price: 100.00},
			{Name: "S2", Price: 95.50},
		},
		Basis: models.BarRef{Open: 104, High: 112, Low: 98, Close: 106},
	}
	camarilla := models.LevelSet{
		Method:      models.PivotCamarilla,
		PP:          105.33,
		Resistances: []models.Level{{Name: "R1", Price: 107.28}},
		Supports:    []models.Level{{Name: "S1", Price: 104.72}},
		Basis:       standard.Basis,
	}

	return &models.AnalysisResult{
		Meta: models.ResultMeta{
			ComputedAt: time.Date(2025, 8, 1, 16, 30, 0, 0, time.UTC),
			Bars:       60,
			From:       time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			To:         time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
			Options: models.CalculationOptions{
				Methods:   []models.PivotMethod{models.PivotStandard, models.PivotCamarilla},
				ATRPeriod: 14,
				ATRMethod: models.SmoothingWilder,
			},
			Elapsed: 3 * time.Millisecond,
		},
		Levels: map[models.PivotMethod]models.LevelSet{
			models.PivotStandard:  standard,
			models.PivotCamarilla: camarilla,
		},
		Analysis: models.AnalysisBlock{
			ATR: models.ATRSummary{
				Period:      14,
				Method:      models.SmoothingWilder,
				Current:     2.48,
				Percentiles: models.Percentiles{P10: 1.82, P50: 2.30, P90: 3.41},
			},
			Zones: []models.ProbabilityZone{
				{Method: models.PivotStandard, Level: "R1", Price: 110, Multiplier: 0.5, Lower: 108.76, Upper: 111.24, Probability: 0.3829},
				{Method: models.PivotStandard, Level: "PP", Price: 105, Multiplier: 0.5, Lower: 103.76, Upper: 106.24, Probability: 0.3829},
				{Method: models.PivotStandard, Level: "S1", Price: 100, Multiplier: 0.5, Lower: 98.76, Upper: 101.24, Probability: 0.3829},
				{Method: models.PivotCamarilla, Level: "PP", Price: 105.33, Multiplier: 0.5, Lower: 104.09, Upper: 106.57, Probability: 0.3829},
			},
			Gamma: &models.GammaExposure{
				Levels: []models.LevelGamma{
					{Method: models.PivotStandard, Level: "R1", Price: 110, Exposure: 0.41},
					{Method: models.PivotStandard, Level: "S1", Price: 100, Exposure: -0.28},
				},
				Net:        0.13,
				Normalized: 0.19,
			},
			Significance: []models.SignificanceResult{
				{Method: models.PivotStandard, Level: "PP", Price: 105, Touches: 9, Expected: 3.2, TStat: 3.1, PValue: 0.0021, Significant: true, Conclusive: true},
				{Method: models.PivotStandard, Level: "R2", Price: 114.5, Touches: 1, Expected: 3.2, TStat: -1.2, PValue: 0.2301, Significant: false, Conclusive: true},
			},
			Quality: []models.QualityScore{
				{Method: models.PivotStandard, Level: "PP", Price: 105, Touches: 9, Reliability: 0.9, HitProbability: 0.45},
				{Method: models.PivotStandard, Level: "R1", Price: 110, Touches: 4, Reliability: 0.4, HitProbability: 0.22},
			},
		},
		Risk: models.RiskReport{
			Volatility: models.VolatilityReport{Daily: 0.0124, Annualized: 0.1968, Regime: models.RegimeNormal},
			Drawdown:   models.DrawdownReport{Max: 0.082, Current: 0.013},
			VaR95:      models.VaREstimates{Parametric: 0.0204, Historical: 0.0189, MonteCarlo: 0.0211},
			VaR99:      models.VaREstimates{Parametric: 0.0288, Historical: 0.0301, MonteCarlo: 0.0295},
			Correlation: models.CorrelationReport{
				Beta:        1.05,
				Correlation: 0.62,
			},
		},
		Performance: &models.RatioSet{
			Sharpe:        1.21,
			Sortino:       1.74,
			Calmar:        2.05,
			Information:   0.44,
			Treynor:       0.09,
			Alpha:         0.021,
			Beta:          1.05,
			TrackingError: 0.034,
		},
	}
}

func plainConfig() Config {
	cfg := DefaultConfig()
	cfg.Color = false
	return cfg
}

func TestGenerateText(t *testing.T) {
	text, err := GenerateText(sampleResult(), sampleBars(60), plainConfig())
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}

	checks := []string{
		"Pivot Point Analysis",
		"■ SUMMARY",
		"Bars: 60",
		"ATR(14, wilder): 2.48",
		"■ LEVELS — STANDARD",
		"■ LEVELS — CAMARILLA",
		"110.00",
		"■ PROBABILITY ZONES — STANDARD",
		"P(inside) 38.29%",
		"■ ANALYSIS",
		"Significant levels (p < 0.05):",
		"p=0.0021",
		"■ RISK",
		"VaR 95% (p/h/mc):",
		"2.04% / 1.89% / 2.11%",
		"■ PERFORMANCE",
		"Sharpe:",
		"■ INDICATOR CONTEXT",
		"RSI(14):",
	}
	for _, c := range checks {
		if !strings.Contains(text, c) {
			t.Errorf("expected %q in text report", c)
		}
	}
	if !strings.Contains(text, "═") {
		t.Error("expected section separators")
	}
	// R2 is inconclusive at p=0.23 and must not be listed as significant.
	if strings.Contains(text, "p=0.2301") {
		t.Error("did not expect insignificant level in the significance list")
	}
}

func TestGenerateText_NilResult(t *testing.T) {
	if _, err := GenerateText(nil, nil, plainConfig()); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestGenerateText_SectionFilter(t *testing.T) {
	cfg := plainConfig()
	cfg.Sections = []Section{SectionSummary, SectionRisk}

	text, err := GenerateText(sampleResult(), sampleBars(60), cfg)
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if !strings.Contains(text, "■ SUMMARY") {
		t.Error("expected summary section")
	}
	if !strings.Contains(text, "■ RISK") {
		t.Error("expected risk section")
	}
	if strings.Contains(text, "■ LEVELS") {
		t.Error("did not expect levels section when not selected")
	}
	if strings.Contains(text, "■ PERFORMANCE") {
		t.Error("did not expect performance section when not selected")
	}
}

func TestGenerateText_CustomTitle(t *testing.T) {
	cfg := plainConfig()
	cfg.Title = "EURUSD Daily Levels"

	text, err := GenerateText(sampleResult(), sampleBars(60), cfg)
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if !strings.Contains(text, "EURUSD Daily Levels") {
		t.Error("expected custom title")
	}
}

func TestGenerateHTML(t *testing.T) {
	cfg := plainConfig()
	cfg.Format = FormatHTML

	html, err := GenerateHTML(sampleResult(), sampleBars(60), cfg)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}

	checks := []struct {
		name   string
		substr string
	}{
		{"doctype", "<!DOCTYPE html>"},
		{"closing tag", "</html>"},
		{"title", "Pivot Point Analysis"},
		{"methods", "standard, camarilla"},
		{"levels heading", "<h2>Pivot Levels</h2>"},
		{"resistance badge", "level-badge resistance"},
		{"support badge", "level-badge support"},
		{"pivot badge", "level-badge pivot"},
		{"zones heading", "Probability Zones (standard)"},
		{"gamma heading", "Gamma Exposure"},
		{"risk value", "19.68%"},
		{"performance card", "Sharpe"},
		{"context heading", "Indicator Context"},
		{"embedded chart", "<svg"},
		{"disclaimer", "Disclaimer"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !strings.Contains(html, c.substr) {
				t.Errorf("expected %q in HTML output", c.substr)
			}
		})
	}
}

func TestGenerateHTML_NilResult(t *testing.T) {
	if _, err := GenerateHTML(nil, nil, plainConfig()); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestGenerateHTML_NoPerformance(t *testing.T) {
	result := sampleResult()
	result.Performance = nil

	cfg := plainConfig()
	cfg.Format = FormatHTML
	html, err := GenerateHTML(result, sampleBars(60), cfg)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	if strings.Contains(html, "<h2>Performance</h2>") {
		t.Error("did not expect performance section without ratios")
	}
}

func TestGenerateHTML_NoBars(t *testing.T) {
	cfg := plainConfig()
	cfg.Format = FormatHTML

	html, err := GenerateHTML(sampleResult(), nil, cfg)
	if err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}
	if strings.Contains(html, "<svg") {
		t.Error("did not expect a chart without bars")
	}
}

func TestBuildContext(t *testing.T) {
	if ctx := buildContext(sampleBars(15)); ctx != nil {
		t.Error("expected nil context for a short series")
	}

	ctx := buildContext(sampleBars(60))
	if ctx == nil {
		t.Fatal("expected context for 60 bars")
	}
	if ctx.RSI14 == "" || ctx.SMA20 == "" || ctx.EMA20 == "" {
		t.Errorf("expected populated indicators, got %+v", ctx)
	}
	if !strings.Contains(ctx.Trend, "SMA20") && ctx.Trend != "flat" {
		t.Errorf("unexpected trend %q", ctx.Trend)
	}
}

func TestLevelClass(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"R1", "resistance"},
		{"R3", "resistance"},
		{"S2", "support"},
		{"PP", "pivot"},
	}
	for _, tt := range tests {
		if got := levelClass(tt.name); got != tt.expected {
			t.Errorf("levelClass(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestHasSection(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.hasSection(SectionRisk) {
		t.Error("expected risk section in default config")
	}

	cfg.Sections = []Section{SectionSummary}
	if cfg.hasSection(SectionRisk) {
		t.Error("did not expect risk section with summary only")
	}
}

func TestAllSections(t *testing.T) {
	sections := AllSections()
	if len(sections) != 7 {
		t.Fatalf("expected 7 sections, got %d", len(sections))
	}
	seen := make(map[Section]bool)
	for _, s := range sections {
		if seen[s] {
			t.Errorf("duplicate section %q", s)
		}
		seen[s] = true
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{500 * time.Microsecond, "500µs"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1.5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.input); got != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLevelsChart(t *testing.T) {
	result := sampleResult()
	cfg := DefaultChartConfig()
	cfg.Title = "Test Levels"

	svg := LevelsChart(sampleBars(30), result.Levels, cfg)
	if !strings.Contains(svg, "<svg") {
		t.Fatal("expected SVG output")
	}
	if !strings.Contains(svg, "Test Levels") {
		t.Error("expected title in SVG")
	}
	// Standard comes first in canonical order, so its labels are drawn.
	for _, label := range []string{"PP 105.00", "R1 110.00", "S2 95.50"} {
		if !strings.Contains(svg, label) {
			t.Errorf("expected level label %q", label)
		}
	}
	if !strings.Contains(svg, "rect") {
		t.Error("expected candle bodies")
	}
}

func TestLevelsChart_Empty(t *testing.T) {
	svg := LevelsChart(nil, nil, DefaultChartConfig())
	if !strings.Contains(svg, "No data") {
		t.Error("expected empty message for nil bars")
	}
}

func TestLevelsChart_ZeroConfig(t *testing.T) {
	svg := LevelsChart(sampleBars(10), nil, ChartConfig{})
	if !strings.Contains(svg, "<svg") {
		t.Error("expected SVG with zero config")
	}
}

func TestLevelsChart_SingleBar(t *testing.T) {
	svg := LevelsChart(sampleBars(1), sampleResult().Levels, DefaultChartConfig())
	if !strings.Contains(svg, "<svg") {
		t.Error("expected valid SVG for a single bar")
	}
}

func TestDefaultChartConfig(t *testing.T) {
	cfg := DefaultChartConfig()
	if cfg.Width != 800 {
		t.Errorf("expected width 800, got %d", cfg.Width)
	}
	if cfg.Height != 400 {
		t.Errorf("expected height 400, got %d", cfg.Height)
	}
}

func TestPlotArea(t *testing.T) {
	cfg := DefaultChartConfig()
	x, y, w, h := cfg.plotArea()
	if x != cfg.MarginLeft || y != cfg.MarginTop {
		t.Errorf("unexpected origin (%d, %d)", x, y)
	}
	if w != cfg.Width-cfg.MarginLeft-cfg.MarginRight {
		t.Errorf("unexpected width %d", w)
	}
	if h != cfg.Height-cfg.MarginTop-cfg.MarginBottom {
		t.Errorf("unexpected height %d", h)
	}
}

func TestEscapeXML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"a & b", "a &amp; b"},
		{"<b>test</b>", "&lt;b&gt;test&lt;/b&gt;"},
		{`"quoted"`, "&quot;quoted&quot;"},
	}
	for _, tt := range tests {
		if got := escapeXML(tt.input); got != tt.expected {
			t.Errorf("escapeXML(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDetectPDFEngine(t *testing.T) {
	switch engine := DetectPDFEngine(); engine {
	case EngineWKHTML, EngineChromium, EngineNone:
	default:
		t.Errorf("unexpected engine %q", engine)
	}
}

func TestExportPDF_EmptyPath(t *testing.T) {
	if _, err := ExportPDF("<html></html>", ""); err == nil {
		t.Error("expected error for empty output path")
	}
}

func TestExportPDF_HTMLFallback(t *testing.T) {
	if DetectPDFEngine() != EngineNone {
		t.Skip("a pdf engine is installed; fallback path not reachable")
	}

	outPath := filepath.Join(t.TempDir(), "levels.pdf")
	html := "<html><body>levels</body></html>"

	written, err := ExportPDF(html, outPath)
	if err != nil {
		t.Fatalf("ExportPDF failed: %v", err)
	}
	if !strings.HasSuffix(written, ".html") {
		t.Errorf("expected .html fallback, got %s", written)
	}
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("reading fallback file: %v", err)
	}
	if string(data) != html {
		t.Error("fallback content mismatch")
	}
}
