// Package report renders calculation results for the CLI: a colorized
// plain-text report for terminals and a self-contained HTML report with an
// embedded SVG levels chart. Indicator context (RSI, moving averages) is
// computed with go-talib.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/markcheno/go-talib"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// Section identifies a report section to include or exclude.
type Section string

const (
	SectionSummary     Section = "summary"
	SectionLevels      Section = "levels"
	SectionZones       Section = "zones"
	SectionAnalysis    Section = "analysis"
	SectionRisk        Section = "risk"
	SectionPerformance Section = "performance"
	SectionContext     Section = "context"
)

// AllSections returns every section in display order.
func AllSections() []Section {
	return []Section{
		SectionSummary,
		SectionLevels,
		SectionZones,
		SectionAnalysis,
		SectionRisk,
		SectionPerformance,
		SectionContext,
	}
}

// Config controls report generation.
type Config struct {
	Format   Format
	Sections []Section // default: all
	Title    string
	Color    bool        // colorize the text format
	ChartCfg ChartConfig // HTML chart rendering
}

// DefaultConfig returns the defaults: colorized text with every section.
func DefaultConfig() Config {
	return Config{
		Format:   FormatText,
		Sections: AllSections(),
		Color:    true,
		ChartCfg: DefaultChartConfig(),
	}
}

func (c Config) hasSection(s Section) bool {
	for _, sec := range c.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// ── Flattened template model ──

// Data is the flattened model shared by the text and HTML renderers.
type Data struct {
	Title       string
	GeneratedAt string
	Bars        int
	WindowFrom  string
	WindowTo    string
	Elapsed     string
	Methods     string // comma-joined method names
	LastClose   string

	LevelBlocks []LevelBlock
	Zones       []ZoneRow
	ZoneMethod  string // the method the zone table covers
	ATR         ATRBlock
	Gamma       *GammaBlock
	Significant []SignificanceRow
	Risk        RiskBlock
	Performance *PerformanceBlock
	Context     *ContextBlock

	ShowSummary     bool
	ShowLevels      bool
	ShowZones       bool
	ShowAnalysis    bool
	ShowRisk        bool
	ShowPerformance bool
	ShowContext     bool

	LevelsChart template.HTML
}

// LevelBlock holds one methodology's levels for rendering.
type LevelBlock struct {
	Method string
	Rows   []LevelRow
}

// LevelRow is a single level with its quality grading. Class is the badge
// class for the HTML renderer (resistance, support or pivot).
type LevelRow struct {
	Name           string
	Class          string
	Price          string
	Touches        int
	Reliability    string
	HitProbability string
}

// ZoneRow is one probability band.
type ZoneRow struct {
	Level       string
	Class       string
	Multiplier  string
	Band        string
	Probability string
}

// ATRBlock summarizes the volatility basis of the zones.
type ATRBlock struct {
	Period  int
	Method  string
	Current string
	P10     string
	P90     string
}

// GammaBlock reports volume-weighted exposure.
type GammaBlock struct {
	Net        string
	Normalized string
	Degraded   bool
	Top        []GammaRow
}

// GammaRow is one level's exposure.
type GammaRow struct {
	Method   string
	Level    string
	Class    string
	Exposure string
}

// SignificanceRow is one statistically significant level.
type SignificanceRow struct {
	Method  string
	Level   string
	Class   string
	Price   string
	Touches int
	PValue  string
}

// RiskBlock flattens the risk report.
type RiskBlock struct {
	VolDaily      string
	VolAnnualized string
	Regime        string
	MaxDrawdown   string
	CurrDrawdown  string
	VaR95         string // parametric / historical / monte carlo
	VaR99         string
	Beta          string
	Correlation   string
}

// PerformanceBlock flattens the ratio set.
type PerformanceBlock struct {
	Sharpe        string
	Sortino       string
	Calmar        string
	Information   string
	Treynor       string
	Alpha         string
	Beta          string
	TrackingError string
}

// ContextBlock holds indicator context computed from the input series.
type ContextBlock struct {
	RSI14 string
	SMA20 string
	EMA20 string
	Trend string // close vs SMA20
}

// ── Entry points ──

// GenerateText renders a terminal-friendly report.
func GenerateText(result *models.AnalysisResult, bars []models.Bar, cfg Config) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result is nil")
	}
	data := buildData(result, bars, cfg)
	return renderText(data, cfg.Color), nil
}

// GenerateHTML renders a self-contained HTML report with the levels chart
// embedded as SVG.
func GenerateHTML(result *models.AnalysisResult, bars []models.Bar, cfg Config) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result is nil")
	}
	data := buildData(result, bars, cfg)

	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// ── Build the flattened model ──

func buildData(r *models.AnalysisResult, bars []models.Bar, cfg Config) Data {
	methods := make([]string, len(r.Meta.Options.Methods))
	for i, m := range r.Meta.Options.Methods {
		methods[i] = string(m)
	}

	data := Data{
		Title:       cfg.Title,
		GeneratedAt: r.Meta.ComputedAt.Format("02 Jan 2006 15:04:05 MST"),
		Bars:        r.Meta.Bars,
		Elapsed:     FormatDuration(r.Meta.Elapsed),
		Methods:     strings.Join(methods, ", "),

		ShowSummary:     cfg.hasSection(SectionSummary),
		ShowLevels:      cfg.hasSection(SectionLevels),
		ShowZones:       cfg.hasSection(SectionZones) && len(r.Analysis.Zones) > 0,
		ShowAnalysis:    cfg.hasSection(SectionAnalysis) && (r.Analysis.Gamma != nil || len(r.Analysis.Significance) > 0),
		ShowRisk:        cfg.hasSection(SectionRisk),
		ShowPerformance: cfg.hasSection(SectionPerformance) && r.Performance != nil,
	}
	if data.Title == "" {
		data.Title = "Pivot Point Analysis"
	}
	if !r.Meta.From.IsZero() {
		data.WindowFrom = r.Meta.From.Format("02 Jan 2006")
		data.WindowTo = r.Meta.To.Format("02 Jan 2006")
	}
	if len(bars) > 0 {
		data.LastClose = formatPrice(bars[len(bars)-1].Close)
	}

	data.LevelBlocks = buildLevelBlocks(r)
	data.Zones, data.ZoneMethod = buildZoneRows(r)
	data.ATR = ATRBlock{
		Period:  r.Analysis.ATR.Period,
		Method:  string(r.Analysis.ATR.Method),
		Current: formatPrice(r.Analysis.ATR.Current),
		P10:     formatPrice(r.Analysis.ATR.Percentiles.P10),
		P90:     formatPrice(r.Analysis.ATR.Percentiles.P90),
	}
	if r.Analysis.Gamma != nil {
		data.Gamma = buildGammaBlock(r.Analysis.Gamma)
	}
	data.Significant = buildSignificanceRows(r.Analysis.Significance)
	data.Risk = buildRiskBlock(r.Risk)
	if r.Performance != nil {
		data.Performance = &PerformanceBlock{
			Sharpe:        formatRatio(r.Performance.Sharpe),
			Sortino:       formatRatio(r.Performance.Sortino),
			Calmar:        formatRatio(r.Performance.Calmar),
			Information:   formatRatio(r.Performance.Information),
			Treynor:       formatRatio(r.Performance.Treynor),
			Alpha:         formatRatio(r.Performance.Alpha),
			Beta:          formatRatio(r.Performance.Beta),
			TrackingError: formatPct(r.Performance.TrackingError),
		}
	}

	if cfg.hasSection(SectionContext) {
		data.Context = buildContext(bars)
	}
	data.ShowContext = data.Context != nil

	if cfg.Format == FormatHTML && len(bars) > 0 {
		chartCfg := cfg.ChartCfg
		chartCfg.Title = data.Title
		data.LevelsChart = template.HTML(LevelsChart(bars, r.Levels, chartCfg))
	}
	return data
}

func buildLevelBlocks(r *models.AnalysisResult) []LevelBlock {
	quality := make(map[string]models.QualityScore, len(r.Analysis.Quality))
	for _, q := range r.Analysis.Quality {
		quality[string(q.Method)+"/"+q.Level] = q
	}

	blocks := make([]LevelBlock, 0, len(r.Levels))
	for _, method := range r.Meta.Options.Methods {
		set, ok := r.Levels[method]
		if !ok {
			continue
		}
		block := LevelBlock{Method: string(method)}
		for _, lv := range set.All() {
			row := LevelRow{Name: lv.Name, Class: levelClass(lv.Name), Price: formatPrice(lv.Price)}
			if q, ok := quality[string(method)+"/"+lv.Name]; ok {
				row.Touches = q.Touches
				row.Reliability = formatPct(q.Reliability)
				row.HitProbability = formatPct(q.HitProbability)
			}
			block.Rows = append(block.Rows, row)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// buildZoneRows keeps the table readable by covering the first configured
// method only; the remaining methods share the same band geometry around
// their own level prices.
func buildZoneRows(r *models.AnalysisResult) ([]ZoneRow, string) {
	if len(r.Meta.Options.Methods) == 0 || len(r.Analysis.Zones) == 0 {
		return nil, ""
	}
	primary := r.Meta.Options.Methods[0]
	var rows []ZoneRow
	for _, z := range r.Analysis.Zones {
		if z.Method != primary {
			continue
		}
		rows = append(rows, ZoneRow{
			Level:       z.Level,
			Class:       levelClass(z.Level),
			Multiplier:  fmt.Sprintf("%.1fx", z.Multiplier),
			Band:        fmt.Sprintf("[%s, %s]", formatPrice(z.Lower), formatPrice(z.Upper)),
			Probability: formatPct(z.Probability),
		})
	}
	return rows, string(primary)
}

func buildGammaBlock(g *models.GammaExposure) *GammaBlock {
	block := &GammaBlock{
		Net:        formatRatio(g.Net),
		Normalized: formatRatio(g.Normalized),
		Degraded:   g.Degraded,
	}
	levels := make([]models.LevelGamma, len(g.Levels))
	copy(levels, g.Levels)
	sort.Slice(levels, func(i, j int) bool {
		return abs(levels[i].Exposure) > abs(levels[j].Exposure)
	})
	if len(levels) > 5 {
		levels = levels[:5]
	}
	for _, lg := range levels {
		block.Top = append(block.Top, GammaRow{
			Method:   string(lg.Method),
			Level:    lg.Level,
			Class:    levelClass(lg.Level),
			Exposure: formatRatio(lg.Exposure),
		})
	}
	return block
}

func buildSignificanceRows(results []models.SignificanceResult) []SignificanceRow {
	var rows []SignificanceRow
	for _, s := range results {
		if !s.Significant || !s.Conclusive {
			continue
		}
		rows = append(rows, SignificanceRow{
			Method:  string(s.Method),
			Level:   s.Level,
			Class:   levelClass(s.Level),
			Price:   formatPrice(s.Price),
			Touches: s.Touches,
			PValue:  fmt.Sprintf("%.4f", s.PValue),
		})
	}
	return rows
}

func buildRiskBlock(r models.RiskReport) RiskBlock {
	varLine := func(v models.VaREstimates) string {
		return fmt.Sprintf("%s / %s / %s", formatPct(v.Parametric), formatPct(v.Historical), formatPct(v.MonteCarlo))
	}
	return RiskBlock{
		VolDaily:      formatPct(r.Volatility.Daily),
		VolAnnualized: formatPct(r.Volatility.Annualized),
		Regime:        string(r.Volatility.Regime),
		MaxDrawdown:   formatPct(r.Drawdown.Max),
		CurrDrawdown:  formatPct(r.Drawdown.Current),
		VaR95:         varLine(r.VaR95),
		VaR99:         varLine(r.VaR99),
		Beta:          formatRatio(r.Correlation.Beta),
		Correlation:   formatRatio(r.Correlation.Correlation),
	}
}

// buildContext computes RSI(14), SMA(20) and EMA(20) context from the input
// series. Returns nil when the series is too short for the indicators.
func buildContext(bars []models.Bar) *ContextBlock {
	closes := models.Closes(bars)
	if len(closes) < 21 {
		return nil
	}
	rsi := talib.Rsi(closes, 14)
	sma := talib.Sma(closes, 20)
	ema := talib.Ema(closes, 20)

	last := len(closes) - 1
	trend := "flat"
	switch {
	case closes[last] > sma[last]:
		trend = "above SMA20"
	case closes[last] < sma[last]:
		trend = "below SMA20"
	}
	return &ContextBlock{
		RSI14: fmt.Sprintf("%.1f", rsi[last]),
		SMA20: formatPrice(sma[last]),
		EMA20: formatPrice(ema[last]),
		Trend: trend,
	}
}

// ── Text renderer ──

type palette struct {
	title func(a ...interface{}) string
	label func(a ...interface{}) string
	good  func(a ...interface{}) string
	bad   func(a ...interface{}) string
	warn  func(a ...interface{}) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		plain := fmt.Sprint
		return palette{title: plain, label: plain, good: plain, bad: plain, warn: plain}
	}
	return palette{
		title: color.New(color.FgCyan, color.Bold).Sprint,
		label: color.New(color.FgWhite, color.Bold).Sprint,
		good:  color.New(color.FgGreen).Sprint,
		bad:   color.New(color.FgRed).Sprint,
		warn:  color.New(color.FgYellow).Sprint,
	}
}

func renderText(d Data, colorize bool) string {
	p := newPalette(colorize)
	var sb strings.Builder
	line := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", p.title(d.Title)))
	sb.WriteString(fmt.Sprintf("  Generated: %s | Elapsed: %s\n", d.GeneratedAt, d.Elapsed))
	sb.WriteString(line + "\n")

	if d.ShowSummary {
		sb.WriteString(fmt.Sprintf("\n  %s\n", p.label("■ SUMMARY")))
		sb.WriteString(fmt.Sprintf("  Bars: %d | Methods: %s\n", d.Bars, d.Methods))
		if d.WindowFrom != "" {
			sb.WriteString(fmt.Sprintf("  Window: %s — %s\n", d.WindowFrom, d.WindowTo))
		}
		if d.LastClose != "" {
			sb.WriteString(fmt.Sprintf("  Last close: %s\n", d.LastClose))
		}
		sb.WriteString(fmt.Sprintf("  ATR(%d, %s): %s  [P10 %s, P90 %s]\n",
			d.ATR.Period, d.ATR.Method, d.ATR.Current, d.ATR.P10, d.ATR.P90))
		sb.WriteString(thin + "\n")
	}

	if d.ShowLevels {
		for _, block := range d.LevelBlocks {
			sb.WriteString(fmt.Sprintf("\n  %s\n", p.label("■ LEVELS — "+strings.ToUpper(block.Method))))
			sb.WriteString(fmt.Sprintf("    %-6s %-12s %-8s %-12s %s\n", "Level", "Price", "Touches", "Reliability", "Hit Prob"))
			for _, row := range block.Rows {
				name := row.Name
				switch {
				case strings.HasPrefix(name, "R"):
					name = p.bad(name)
				case strings.HasPrefix(name, "S"):
					name = p.good(name)
				}
				sb.WriteString(fmt.Sprintf("    %-6s %-12s %-8d %-12s %s\n",
					name, row.Price, row.Touches, row.Reliability, row.HitProbability))
			}
			sb.WriteString(thin + "\n")
		}
	}

	if d.ShowZones {
		sb.WriteString(fmt.Sprintf("\n  %s\n", p.label("■ PROBABILITY ZONES — "+strings.ToUpper(d.ZoneMethod))))
		for _, z := range d.Zones {
			sb.WriteString(fmt.Sprintf("    %-6s %-6s %-28s P(inside) %s\n", z.Level, z.Multiplier, z.Band, z.Probability))
		}
		sb.WriteString(thin + "\n")
	}

	if d.ShowAnalysis {
		sb.WriteString(fmt.Sprintf("\n  %s\n", p.label("■ ANALYSIS")))
		if d.Gamma != nil {
			degraded := ""
			if d.Gamma.Degraded {
				degraded = " " + p.warn("(no volume, equal weighting)")
			}
			sb.WriteString(fmt.Sprintf("  Gamma exposure: net %s, normalized %s%s\n", d.Gamma.Net, d.Gamma.Normalized, degraded))
			for _, g := range d.Gamma.Top {
				sb.WriteString(fmt.Sprintf("    %-10s %-6s %s\n", g.Method, g.Level, g.Exposure))
			}
		}
		if len(d.Significant) > 0 {
			sb.WriteString("  Significant levels (p < 0.05):\n")
			for _, s := range d.Significant {
				sb.WriteString(fmt.Sprintf("    %-10s %-6s %-12s touches %-3d p=%s\n", s.Method, s.Level, s.Price, s.Touches, s.PValue))
			}
		}
		sb.WriteString(thin + "\n")
	}

	if d.ShowRisk {
		regime := d.Risk.Regime
		switch regime {
		case string(models.RegimeHigh):
			regime = p.bad(regime)
		case string(models.RegimeLow):
			regime = p.good(regime)
		}
		sb.WriteString(fmt.Sprintf("\n  %s\n", p.label("■ RISK")))
		sb.WriteString(fmt.Sprintf("    %-22s %s (annualized %s, regime %s)\n", "Volatility (daily):", d.Risk.VolDaily, d.Risk.VolAnnualized, regime))
		sb.WriteString(fmt.Sprintf("    %-22s max %s, current %s\n", "Drawdown:", d.Risk.MaxDrawdown, d.Risk.CurrDrawdown))
		sb.WriteString(fmt.Sprintf("    %-22s %s\n", "VaR 95% (p/h/mc):", d.Risk.VaR95))
		sb.WriteString(fmt.Sprintf("    %-22s %s\n", "VaR 99% (p/h/mc):", d.Risk.VaR99))
		sb.WriteString(fmt.Sprintf("    %-22s beta %s, correlation %s\n", "Market proxy:", d.Risk.Beta, d.Risk.Correlation))
		sb.WriteString(thin + "\n")
	}

	if d.ShowPerformance && d.Performance != nil {
		pf := d.Performance
		sb.WriteString(fmt.Sprintf("\n  %s\n", p.label("■ PERFORMANCE")))
		sb.WriteString(fmt.Sprintf("    %-14s %-10s %-14s %s\n", "Sharpe:", pf.Sharpe, "Sortino:", pf.Sortino))
		sb.WriteString(fmt.Sprintf("    %-14s %-10s %-14s %s\n", "Calmar:", pf.Calmar, "Information:", pf.Information))
		sb.WriteString(fmt.Sprintf("    %-14s %-10s %-14s %s\n", "Treynor:", pf.Treynor, "Alpha:", pf.Alpha))
		sb.WriteString(fmt.Sprintf("    %-14s %-10s %-14s %s\n", "Beta:", pf.Beta, "Tracking err:", pf.TrackingError))
		sb.WriteString(thin + "\n")
	}

	if d.ShowContext && d.Context != nil {
		sb.WriteString(fmt.Sprintf("\n  %s\n", p.label("■ INDICATOR CONTEXT")))
		sb.WriteString(fmt.Sprintf("    RSI(14): %s | SMA(20): %s | EMA(20): %s | Price %s\n",
			d.Context.RSI14, d.Context.SMA20, d.Context.EMA20, d.Context.Trend))
		sb.WriteString(thin + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}

// ── Formatting helpers ──

func formatPrice(v float64) string { return fmt.Sprintf("%.2f", v) }
func formatRatio(v float64) string { return fmt.Sprintf("%.4f", v) }
func formatPct(v float64) string   { return fmt.Sprintf("%.2f%%", v*100) }

// levelClass maps a level name to its HTML badge class.
func levelClass(name string) string {
	switch {
	case strings.HasPrefix(name, "R"):
		return "resistance"
	case strings.HasPrefix(name, "S"):
		return "support"
	default:
		return "pivot"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// FormatDuration formats an elapsed time for report headers.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}
