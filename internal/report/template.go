package report

// htmlTemplate is the self-contained HTML report layout. Styles and the SVG
// levels chart are inlined, so the output is a single portable file.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --orange: #ea580c;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }

  /* Summary bar */
  .summary-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(140px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .summary-item { text-align: center; }
  .summary-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .summary-item .value { font-size: 1rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }

  /* Tables */
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  .level-badge {
    display: inline-block;
    padding: 1px 8px;
    border-radius: 3px;
    font-size: 0.8rem;
    font-weight: 600;
  }
  .level-badge.resistance { background: #fef2f2; color: var(--red); }
  .level-badge.support { background: #dcfce7; color: var(--green); }
  .level-badge.pivot { background: #fff7ed; color: var(--orange); }

  /* Metric grid */
  .metric-grid {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(180px, 1fr));
    gap: 8px;
    margin: 10px 0 16px;
  }
  .metric-card {
    background: var(--section-bg);
    padding: 8px 12px;
    border-radius: 6px;
    display: flex;
    justify-content: space-between;
  }
  .metric-card .label { color: var(--muted); font-size: 0.85rem; }
  .metric-card .value { font-weight: 600; }

  /* Chart container */
  .chart-container {
    margin: 12px 0;
    overflow-x: auto;
  }
  .chart-container svg { max-width: 100%; height: auto; }

  /* Section */
  .section { margin: 20px 0; }
  .note {
    background: var(--section-bg);
    padding: 8px 12px;
    border-radius: 6px;
    margin: 8px 0;
    font-size: 0.85rem;
    color: var(--muted);
  }

  /* Footer */
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div class="header-left">
    <h1>{{.Title}}</h1>
    <p class="muted">Methods: {{.Methods}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">Computed in {{.Elapsed}}</p>
  </div>
</div>

<!-- ═══════ SUMMARY ═══════ -->
{{if .ShowSummary}}
<div class="summary-bar">
  <div class="summary-item">
    <div class="label">Bars</div>
    <div class="value">{{.Bars}}</div>
  </div>
  {{if .WindowFrom}}
  <div class="summary-item">
    <div class="label">Window</div>
    <div class="value">{{.WindowFrom}} — {{.WindowTo}}</div>
  </div>
  {{end}}
  {{if .LastClose}}
  <div class="summary-item">
    <div class="label">Last Close</div>
    <div class="value">{{.LastClose}}</div>
  </div>
  {{end}}
  <div class="summary-item">
    <div class="label">ATR({{.ATR.Period}}, {{.ATR.Method}})</div>
    <div class="value">{{.ATR.Current}}</div>
  </div>
  <div class="summary-item">
    <div class="label">ATR P10 / P90</div>
    <div class="value">{{.ATR.P10}} / {{.ATR.P90}}</div>
  </div>
</div>
{{end}}

<!-- ═══════ LEVELS CHART ═══════ -->
{{if .LevelsChart}}
<div class="section">
  <h2>Price &amp; Levels</h2>
  <div class="chart-container">{{.LevelsChart}}</div>
</div>
{{end}}

<!-- ═══════ PIVOT LEVELS ═══════ -->
{{if .ShowLevels}}
<div class="section">
  <h2>Pivot Levels</h2>
  {{range .LevelBlocks}}
  <h3>{{.Method}}</h3>
  <table>
    <thead><tr><th>Level</th><th>Price</th><th>Touches</th><th>Reliability</th><th>Hit Probability</th></tr></thead>
    <tbody>
    {{range .Rows}}
    <tr>
      <td><span class="level-badge {{.Class}}">{{.Name}}</span></td>
      <td>{{.Price}}</td>
      <td>{{.Touches}}</td>
      <td>{{.Reliability}}</td>
      <td>{{.HitProbability}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</div>
{{end}}

<!-- ═══════ PROBABILITY ZONES ═══════ -->
{{if .ShowZones}}
<div class="section">
  <h2>Probability Zones ({{.ZoneMethod}})</h2>
  <table>
    <thead><tr><th>Level</th><th>Width</th><th>Band</th><th>P(inside)</th></tr></thead>
    <tbody>
    {{range .Zones}}
    <tr>
      <td><span class="level-badge {{.Class}}">{{.Level}}</span></td>
      <td>{{.Multiplier}}</td>
      <td>{{.Band}}</td>
      <td>{{.Probability}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

<!-- ═══════ ANALYSIS ═══════ -->
{{if .ShowAnalysis}}
<div class="section">
  <h2>Analysis</h2>

  {{if .Gamma}}
  <h3>Gamma Exposure</h3>
  <div class="metric-grid">
    <div class="metric-card"><span class="label">Net</span><span class="value">{{.Gamma.Net}}</span></div>
    <div class="metric-card"><span class="label">Normalized</span><span class="value">{{.Gamma.Normalized}}</span></div>
  </div>
  {{if .Gamma.Degraded}}
  <p class="note">Series carries no volume; exposure uses equal weighting.</p>
  {{end}}
  {{if .Gamma.Top}}
  <table>
    <thead><tr><th>Method</th><th>Level</th><th>Exposure</th></tr></thead>
    <tbody>
    {{range .Gamma.Top}}
    <tr>
      <td>{{.Method}}</td>
      <td><span class="level-badge {{.Class}}">{{.Level}}</span></td>
      <td>{{.Exposure}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
  {{end}}

  {{if .Significant}}
  <h3>Significant Levels (p &lt; 0.05)</h3>
  <table>
    <thead><tr><th>Method</th><th>Level</th><th>Price</th><th>Touches</th><th>p-value</th></tr></thead>
    <tbody>
    {{range .Significant}}
    <tr>
      <td>{{.Method}}</td>
      <td><span class="level-badge {{.Class}}">{{.Level}}</span></td>
      <td>{{.Price}}</td>
      <td>{{.Touches}}</td>
      <td>{{.PValue}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</div>
{{end}}

<!-- ═══════ RISK ═══════ -->
{{if .ShowRisk}}
<div class="section">
  <h2>Risk</h2>
  <div class="metric-grid">
    <div class="metric-card"><span class="label">Volatility (daily)</span><span class="value">{{.Risk.VolDaily}}</span></div>
    <div class="metric-card"><span class="label">Volatility (annualized)</span><span class="value">{{.Risk.VolAnnualized}}</span></div>
    <div class="metric-card"><span class="label">Regime</span><span class="value">{{.Risk.Regime}}</span></div>
    <div class="metric-card"><span class="label">Max Drawdown</span><span class="value negative">{{.Risk.MaxDrawdown}}</span></div>
    <div class="metric-card"><span class="label">Current Drawdown</span><span class="value">{{.Risk.CurrDrawdown}}</span></div>
    <div class="metric-card"><span class="label">VaR 95% (p/h/mc)</span><span class="value">{{.Risk.VaR95}}</span></div>
    <div class="metric-card"><span class="label">VaR 99% (p/h/mc)</span><span class="value">{{.Risk.VaR99}}</span></div>
    <div class="metric-card"><span class="label">Beta</span><span class="value">{{.Risk.Beta}}</span></div>
    <div class="metric-card"><span class="label">Correlation</span><span class="value">{{.Risk.Correlation}}</span></div>
  </div>
</div>
{{end}}

<!-- ═══════ PERFORMANCE ═══════ -->
{{if .ShowPerformance}}{{with .Performance}}
<div class="section">
  <h2>Performance</h2>
  <div class="metric-grid">
    <div class="metric-card"><span class="label">Sharpe</span><span class="value">{{.Sharpe}}</span></div>
    <div class="metric-card"><span class="label">Sortino</span><span class="value">{{.Sortino}}</span></div>
    <div class="metric-card"><span class="label">Calmar</span><span class="value">{{.Calmar}}</span></div>
    <div class="metric-card"><span class="label">Information</span><span class="value">{{.Information}}</span></div>
    <div class="metric-card"><span class="label">Treynor</span><span class="value">{{.Treynor}}</span></div>
    <div class="metric-card"><span class="label">Alpha</span><span class="value">{{.Alpha}}</span></div>
    <div class="metric-card"><span class="label">Beta</span><span class="value">{{.Beta}}</span></div>
    <div class="metric-card"><span class="label">Tracking Error</span><span class="value">{{.TrackingError}}</span></div>
  </div>
</div>
{{end}}{{end}}

<!-- ═══════ INDICATOR CONTEXT ═══════ -->
{{if .ShowContext}}{{with .Context}}
<div class="section">
  <h2>Indicator Context</h2>
  <div class="metric-grid">
    <div class="metric-card"><span class="label">RSI(14)</span><span class="value">{{.RSI14}}</span></div>
    <div class="metric-card"><span class="label">SMA(20)</span><span class="value">{{.SMA20}}</span></div>
    <div class="metric-card"><span class="label">EMA(20)</span><span class="value">{{.EMA20}}</span></div>
    <div class="metric-card"><span class="label">Price</span><span class="value">{{.Trend}}</span></div>
  </div>
</div>
{{end}}{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p><strong>Disclaimer:</strong> Levels and risk estimates are computed from the supplied price history
  for informational purposes only and do not constitute financial advice.</p>
  <p>PivotQuant · generated {{.GeneratedAt}}</p>
</div>

</body>
</html>`
