// PivotQuant: multi-methodology pivot point analysis for OHLC series.
//
// Main CLI entrypoint using the cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/internal/config"
	"github.com/sykurtyppi/PIVOT-QUANT-sub001/internal/logging"
	"github.com/sykurtyppi/PIVOT-QUANT-sub001/internal/monitoring"
	"github.com/sykurtyppi/PIVOT-QUANT-sub001/internal/report"
	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/engine"
	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pivotquant",
	Short: "PivotQuant — multi-methodology pivot point analysis",
	Long: `PivotQuant computes pivot levels (standard, fibonacci, camarilla,
woodie, demark) from OHLC history, brackets them in ATR-scaled probability
zones, and grades the series with volatility, drawdown and value-at-risk
estimates.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logCfg := cfg.Logging
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			logCfg.Level = level
		}
		logger, err = logging.New(logCfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
}

// newEngine wires the engine with the configured resolver and, when enabled,
// the monitoring collaborator. The returned cleanup closes both.
func newEngine() (*engine.Engine, func(), error) {
	resolver, err := config.NewResolver(cfg.Defaults)
	if err != nil {
		return nil, nil, fmt.Errorf("build resolver: %w", err)
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	var mon *monitoring.Monitor
	if cfg.Monitoring.Enabled {
		monOpts := []monitoring.Option{monitoring.WithSlowThreshold(cfg.Monitoring.SlowThreshold)}
		if cfg.Monitoring.DatabasePath != "" {
			rec, err := monitoring.NewSQLiteRecorder(cfg.Monitoring.DatabasePath, logger)
			if err != nil {
				return nil, nil, fmt.Errorf("open telemetry database: %w", err)
			}
			monOpts = append(monOpts, monitoring.WithRecorder(rec))
		}
		mon = monitoring.New(logger, monOpts...)
		opts = append(opts, engine.WithMonitor(mon))
	}

	eng, err := engine.New(engine.Config{
		MinDataPoints: cfg.Engine.MinDataPoints,
		CacheCapacity: cfg.Engine.CacheCapacity,
		SweepInterval: cfg.Engine.SweepInterval,
	}, resolver, opts...)
	if err != nil {
		if mon != nil {
			_ = mon.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		eng.Close()
		if mon != nil {
			_ = mon.Close()
		}
	}
	return eng, cleanup, nil
}

// addCalculationFlags registers the option overrides shared by analyze and
// report. Unset flags leave the configured defaults in force.
func addCalculationFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("methods", nil, "pivot methods (standard, fibonacci, camarilla, woodie, demark)")
	cmd.Flags().Int("atr-period", 0, "ATR smoothing period")
	cmd.Flags().String("atr-method", "", "ATR smoothing method (wilder, ema, sma)")
	cmd.Flags().Int("lookback", 0, "bars of history used by level-quality analyses")
}

func optionsFromFlags(cmd *cobra.Command) (models.CalculationOptions, error) {
	var opts models.CalculationOptions

	methods, _ := cmd.Flags().GetStringSlice("methods")
	for _, raw := range methods {
		m := models.PivotMethod(strings.ToLower(strings.TrimSpace(raw)))
		if !m.Valid() {
			return opts, fmt.Errorf("unknown pivot method %q", raw)
		}
		opts.Methods = append(opts.Methods, m)
	}
	if p, _ := cmd.Flags().GetInt("atr-period"); p > 0 {
		opts.ATRPeriod = p
	}
	if raw, _ := cmd.Flags().GetString("atr-method"); raw != "" {
		m := models.SmoothingMethod(strings.ToLower(raw))
		if !m.Valid() {
			return opts, fmt.Errorf("unknown ATR method %q", raw)
		}
		opts.ATRMethod = m
	}
	if lb, _ := cmd.Flags().GetInt("lookback"); lb > 0 {
		opts.Lookback = lb
	}
	return opts, nil
}

// baseName strips directory and extension for default titles and filenames.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pivotquant %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <csv>",
	Short: "Compute pivot levels from an OHLCV CSV file",
	Long: `Load an OHLCV CSV file, run the calculation engine and print a quick
text report: summary, levels, probability zones and risk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bars, err := loadBars(args[0])
		if err != nil {
			return err
		}
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}

		eng, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := eng.Calculate(cmd.Context(), bars, opts)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal result: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		rcfg := report.DefaultConfig()
		rcfg.Sections = []report.Section{
			report.SectionSummary,
			report.SectionLevels,
			report.SectionZones,
			report.SectionRisk,
		}
		rcfg.Title = "Pivot Point Analysis — " + baseName(args[0])
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			rcfg.Color = false
		}

		text, err := report.GenerateText(result, bars, rcfg)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

func init() {
	addCalculationFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "print the raw analysis result as JSON")
	analyzeCmd.Flags().Bool("no-color", false, "disable colorized output")
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report <csv>",
	Short: "Generate a full analysis report",
	Long: `Run the engine with gamma exposure, significance testing and
performance ratios enabled, and render every report section including
indicator context. Formats: text (default) and html with an embedded levels
chart. --pdf converts the HTML report with wkhtmltopdf or headless chromium
when one is installed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	addCalculationFlags(reportCmd)
	reportCmd.Flags().String("format", "text", "output format: text or html")
	reportCmd.Flags().StringP("output", "o", "", "write the report to a file")
	reportCmd.Flags().Bool("pdf", false, "export as PDF (implies html)")
	reportCmd.Flags().String("title", "", "report title")
	reportCmd.Flags().Bool("no-color", false, "disable colorized text output")
}

func runReport(cmd *cobra.Command, args []string) error {
	bars, err := loadBars(args[0])
	if err != nil {
		return err
	}
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	opts.EnableGamma = true
	opts.EnableSignificance = true
	opts.EnablePerformance = true

	eng, cleanup, err := newEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := eng.Calculate(cmd.Context(), bars, opts)
	if err != nil {
		return err
	}

	rcfg := report.DefaultConfig()
	rcfg.Title = "Pivot Point Analysis — " + baseName(args[0])
	if title, _ := cmd.Flags().GetString("title"); title != "" {
		rcfg.Title = title
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		rcfg.Color = false
	}

	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	pdf, _ := cmd.Flags().GetBool("pdf")

	if pdf || strings.EqualFold(format, "html") {
		rcfg.Format = report.FormatHTML
		html, err := report.GenerateHTML(result, bars, rcfg)
		if err != nil {
			return err
		}
		if pdf {
			if output == "" {
				output = baseName(args[0]) + "_levels.pdf"
			}
			written, err := report.ExportPDF(html, output)
			if err != nil {
				return err
			}
			fmt.Printf("📄 Report written to %s\n", written)
			return nil
		}
		if output == "" {
			output = baseName(args[0]) + "_levels.html"
		}
		if err := os.WriteFile(output, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("📄 Report written to %s\n", output)
		return nil
	}

	if !strings.EqualFold(format, "text") {
		return fmt.Errorf("unknown format %q (want text or html)", format)
	}
	text, err := report.GenerateText(result, bars, rcfg)
	if err != nil {
		return err
	}
	if output != "" {
		if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("📄 Report written to %s\n", output)
		return nil
	}
	fmt.Print(text)
	return nil
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and recorded telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  PivotQuant — Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Printf("  Environment:  %s\n", cfg.Environment)
		fmt.Println()

		fmt.Println("  Engine:")
		fmt.Printf("    Min data points:  %d\n", cfg.Engine.MinDataPoints)
		fmt.Printf("    Cache capacity:   %d\n", cfg.Engine.CacheCapacity)
		fmt.Printf("    Sweep interval:   %s\n", cfg.Engine.SweepInterval)
		fmt.Println()

		fmt.Println("  Calculation defaults:")
		fmt.Printf("    Methods:    %s\n", strings.Join(cfg.Defaults.Methods, ", "))
		fmt.Printf("    ATR:        %d (%s)\n", cfg.Defaults.ATRPeriod, cfg.Defaults.ATRMethod)
		fmt.Printf("    Lookback:   %d\n", cfg.Defaults.Lookback)
		fmt.Printf("    Cache TTL:  %s\n", cfg.Defaults.CacheTTL)
		fmt.Printf("    Precision:  %d\n", cfg.Defaults.Precision)
		fmt.Println()

		fmt.Println("  Monitoring:")
		if !cfg.Monitoring.Enabled {
			fmt.Println("    disabled")
		} else {
			fmt.Printf("    Slow threshold:  %s\n", cfg.Monitoring.SlowThreshold)
			if cfg.Monitoring.DatabasePath == "" {
				fmt.Println("    Recorder:        none (log only)")
			} else {
				fmt.Printf("    Database:        %s\n", cfg.Monitoring.DatabasePath)
				printTelemetry(cfg.Monitoring.DatabasePath)
			}
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// printTelemetry summarizes recorded sessions; a missing database only means
// nothing has run yet.
func printTelemetry(dbPath string) {
	sum, err := monitoring.ReadSummary(dbPath)
	if err != nil {
		fmt.Println("    Sessions:        none recorded yet")
		return
	}
	fmt.Printf("    Sessions:        %d (%d cache hits, %d errors)\n", sum.Sessions, sum.CacheHits, sum.Errors)
	if sum.Sessions > 0 {
		fmt.Printf("    Avg duration:    %s\n", report.FormatDuration(sum.AvgDuration))
		fmt.Printf("    Last run:        %s (%s)\n", sum.LastRun.Format("02 Jan 2006 15:04:05"), sum.LastOutcome)
	}
}
