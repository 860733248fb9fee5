package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// ── SVG chart configuration ──

// ChartConfig holds rendering parameters for the embedded SVG chart.
type ChartConfig struct {
	Width        int    // pixels (default 800)
	Height       int    // pixels (default 400)
	MarginTop    int    // default 40
	MarginRight  int    // default 90, wide enough for level labels
	MarginBottom int    // default 50
	MarginLeft   int    // default 70
	BgColor      string // default "#ffffff"
	GridColor    string // default "#e8e8e8"
	TextColor    string // default "#333333"
	FontSize     int    // axis label font size, default 11
	Title        string
}

// DefaultChartConfig returns the rendering defaults.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  90,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ── Levels chart ──

// levelLine is one horizontal pivot line prepared for drawing.
type levelLine struct {
	name  string
	price float64
	color string
}

const (
	colorPivot      = "#ff9800"
	colorResistance = "#ef5350"
	colorSupport    = "#26a69a"
	colorBullish    = "#26a69a"
	colorBearish    = "#ef5350"
	colorVolBull    = "#c8e6c9"
	colorVolBear    = "#ffcdd2"
)

// LevelsChart renders the bar series as SVG candlesticks with the pivot
// levels of the first methodology (canonical order) overlaid as labeled
// horizontal lines. Drawing every methodology would bury the candles under
// dozens of lines, so the chart mirrors the zone table and covers one.
// Volume bars occupy the bottom fifth when the series carries volume.
func LevelsChart(bars []models.Bar, levels map[models.PivotMethod]models.LevelSet, cfg ChartConfig) string {
	if len(bars) == 0 {
		return emptySVG(cfg, "No data available")
	}
	if cfg.Width == 0 {
		title := cfg.Title
		cfg = DefaultChartConfig()
		cfg.Title = title
	}
	if cfg.Title == "" {
		cfg.Title = "Price & Pivot Levels"
	}

	lines := pickLevelLines(levels)
	px, py, pw, ph := cfg.plotArea()

	// Price range covers the bars and every drawn level, padded 5%.
	minPrice, maxPrice := bars[0].Low, bars[0].High
	for _, b := range bars {
		minPrice = math.Min(minPrice, b.Low)
		maxPrice = math.Max(maxPrice, b.High)
	}
	for _, ln := range lines {
		minPrice = math.Min(minPrice, ln.price)
		maxPrice = math.Max(maxPrice, ln.price)
	}
	priceRange := maxPrice - minPrice
	if priceRange < 0.01 {
		priceRange = 1
	}
	minPrice -= priceRange * 0.05
	maxPrice += priceRange * 0.05
	priceRange = maxPrice - minPrice

	var maxVol float64
	for _, b := range bars {
		maxVol = math.Max(maxVol, b.Volume)
	}
	volHeight := 0.0
	if maxVol > 0 {
		volHeight = float64(ph) * 0.2
	}

	n := len(bars)
	slot := float64(pw) / float64(n)
	bodyWidth := slot * 0.7
	if bodyWidth > 9 {
		bodyWidth = 9
	}

	priceToY := func(p float64) float64 {
		ratio := (p - minPrice) / priceRange
		return float64(py) + (float64(ph)-volHeight)*(1-ratio)
	}
	barX := func(i int) float64 {
		return float64(px) + float64(i)*slot + slot/2
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Price grid.
	gridLines := 6
	for i := 0; i <= gridLines; i++ {
		price := minPrice + priceRange*float64(i)/float64(gridLines)
		y := priceToY(price)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, price))
	}

	// Volume bars.
	if maxVol > 0 {
		for i, b := range bars {
			vh := b.Volume / maxVol * volHeight
			if vh <= 0 {
				continue
			}
			fill := colorVolBull
			if b.HasOpen() && b.Close < b.Open {
				fill = colorVolBear
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" opacity="0.6"/>`,
				barX(i)-bodyWidth/2, float64(py+ph)-vh, bodyWidth, vh, fill))
		}
	}

	// Candles.
	for i, b := range bars {
		cx := barX(i)
		fill := colorBullish
		if b.HasOpen() && b.Close < b.Open {
			fill = colorBearish
		}

		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			cx, priceToY(b.High), cx, priceToY(b.Low), fill))

		top, bottom := b.Close, b.Close
		if b.HasOpen() {
			top = math.Max(b.Open, b.Close)
			bottom = math.Min(b.Open, b.Close)
		}
		bodyY := priceToY(top)
		bodyH := priceToY(bottom) - bodyY
		if bodyH < 1 {
			bodyH = 1
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
			cx-bodyWidth/2, bodyY, bodyWidth, bodyH, fill))
	}

	// Pivot level lines with right-margin labels.
	for _, ln := range lines {
		y := priceToY(ln.price)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-width="1.2" stroke-dasharray="6,3" opacity="0.85"/>`,
			px, y, px+pw, y, ln.color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s">%s %.2f</text>`,
			px+pw+4, y+3, cfg.FontSize-1, ln.color, escapeXML(ln.name), ln.price))
	}

	// X-axis labels: dates when the series is stamped, bar indices otherwise.
	labelInterval := n / 6
	if labelInterval < 1 {
		labelInterval = 1
	}
	for i := 0; i < n; i += labelInterval {
		label := fmt.Sprintf("#%d", i)
		if bars[i].HasTimestamp() {
			label = bars[i].Timestamp.Format("02 Jan")
		}
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			barX(i), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// pickLevelLines selects the first methodology present in canonical order
// and colors its levels by role.
func pickLevelLines(levels map[models.PivotMethod]models.LevelSet) []levelLine {
	for _, method := range models.AllPivotMethods() {
		set, ok := levels[method]
		if !ok {
			continue
		}
		lines := make([]levelLine, 0, 1+len(set.Resistances)+len(set.Supports))
		lines = append(lines, levelLine{name: "PP", price: set.PP, color: colorPivot})
		for _, lv := range set.Resistances {
			lines = append(lines, levelLine{name: lv.Name, price: lv.Price, color: colorResistance})
		}
		for _, lv := range set.Supports {
			lines = append(lines, levelLine{name: lv.Name, price: lv.Price, color: colorSupport})
		}
		return lines
	}
	return nil
}

// ── SVG helpers ──

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
