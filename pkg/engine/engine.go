// Package engine orchestrates pivot calculations: it validates input through
// a pluggable validator, resolves caller options against configured defaults,
// memoizes results in a fingerprint-keyed TTL cache with insertion-order
// eviction, and fans the selected pivot methods out concurrently on a miss.
// Collaborators are injected; the package keeps no global state.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sykurtyppi/PIVOT-QUANT-sub001/internal/validation"
	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/models"
	"github.com/sykurtyppi/PIVOT-QUANT-sub001/pkg/quant"
)

// ── Collaborator contracts ──

// Resolver merges caller options with configured defaults and bounds-checks
// the result. The engine never fills defaults itself.
type Resolver interface {
	Resolve(opts models.CalculationOptions) (models.CalculationOptions, error)
}

// Validator inspects a bar series and the effective options before any
// computation runs.
type Validator interface {
	Validate(bars []models.Bar, opts models.CalculationOptions) models.ValidationReport
}

// Monitor receives calculation side effects. Implementations must absorb
// their own failures; the engine treats every call as fire-and-forget.
type Monitor interface {
	StartSession(name string, meta map[string]any) string
	EndSession(id string, err error)
	RecordError(context string, err error)
	RecordCacheHit(id string)
	RecordCacheMiss(id string)
}

// nopMonitor is the default when no monitor is injected.
type nopMonitor struct{}

func (nopMonitor) StartSession(string, map[string]any) string { return "" }
func (nopMonitor) EndSession(string, error)                   {}
func (nopMonitor) RecordError(string, error)                  {}
func (nopMonitor) RecordCacheHit(string)                      {}
func (nopMonitor) RecordCacheMiss(string)                     {}

// ── Engine state ──

// State labels the stage a calculation pipeline is in. With concurrent
// callers the reported state is that of the most recent transition.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateCacheLookup State = "cache_lookup"
	StateComputing   State = "computing"
	StateCaching     State = "caching"
	StateReturning   State = "returning"
)

// ── Configuration ──

// Config holds the engine's runtime parameters. Zero values fall back to
// DefaultConfig.
type Config struct {
	MinDataPoints int           `mapstructure:"min_data_points"` // minimum bars accepted by Calculate
	CacheCapacity int           `mapstructure:"cache_capacity"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // background expiry sweep cadence
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinDataPoints: 20,
		CacheCapacity: 100,
		SweepInterval: 5 * time.Minute,
	}
}

func (c Config) validate() error {
	if c.MinDataPoints < 2 {
		return fmt.Errorf("min_data_points must be at least 2, got %d: %w", c.MinDataPoints, models.ErrConfigurationInvalid)
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be at least 1, got %d: %w", c.CacheCapacity, models.ErrConfigurationInvalid)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive, got %s: %w", c.SweepInterval, models.ErrConfigurationInvalid)
	}
	return nil
}

// EngineStatus is the snapshot returned by Status.
type EngineStatus struct {
	State        State      `json:"state"`
	CacheSize    int        `json:"cache_size"`
	CacheHitRate float64    `json:"cache_hit_rate"`
	Calculations uint64     `json:"calculations"`
	Errors       uint64     `json:"errors"`
	Cache        CacheStats `json:"cache"`
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithValidator replaces the default structural validator.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithMonitor attaches a monitoring collaborator.
func WithMonitor(m Monitor) Option {
	return func(e *Engine) { e.monitor = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source, for tests exercising TTL expiry.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.clock = fn }
}

// ── Engine ──

// Engine runs the calculation pipeline
// Validating -> CacheLookup -> Computing -> Caching -> Returning.
// It is safe for concurrent use. Identical concurrent requests are not
// coalesced: each performs its own lookup and, on simultaneous misses,
// computes independently; the later cache write wins and both results are
// numerically identical.
type Engine struct {
	cfg       Config
	resolver  Resolver
	validator Validator
	monitor   Monitor
	logger    *zap.Logger
	clock     func() time.Time

	cache   *resultCache
	sweeper *cron.Cron

	mu           sync.RWMutex
	state        State
	calculations uint64
	errors       uint64
}

// New builds an Engine. The resolver is mandatory; validator, monitor,
// logger and clock have working defaults. The background cache sweeper
// starts immediately and runs until Close.
func New(cfg Config, resolver Resolver, opts ...Option) (*Engine, error) {
	def := DefaultConfig()
	if cfg.MinDataPoints == 0 {
		cfg.MinDataPoints = def.MinDataPoints
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = def.CacheCapacity
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required: %w", models.ErrConfigurationInvalid)
	}

	e := &Engine{
		cfg:      cfg,
		resolver: resolver,
		clock:    time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.validator == nil {
		e.validator = validation.New(cfg.MinDataPoints)
	}
	if e.monitor == nil {
		e.monitor = nopMonitor{}
	}
	e.cache = newResultCache(cfg.CacheCapacity, e.clock)

	e.sweeper = cron.New()
	if _, err := e.sweeper.AddFunc(fmt.Sprintf("@every %s", cfg.SweepInterval), e.sweep); err != nil {
		return nil, fmt.Errorf("register cache sweep: %w", err)
	}
	e.sweeper.Start()

	e.logger.Debug("engine ready",
		zap.Int("min_data_points", cfg.MinDataPoints),
		zap.Int("cache_capacity", cfg.CacheCapacity),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)
	return e, nil
}

// Calculate validates the series, resolves options, consults the cache and
// computes on a miss. Cache hits return the stored result by reference and
// do not count as calculations. Any failure leaves the cache untouched.
func (e *Engine) Calculate(ctx context.Context, bars []models.Bar, opts models.CalculationOptions) (*models.AnalysisResult, error) {
	start := e.clock()

	e.mu.RLock()
	cfg := e.cfg
	e.mu.RUnlock()

	session := e.monitor.StartSession("calculate", map[string]any{"bars": len(bars)})

	e.setState(StateValidating)
	defer e.setState(StateIdle)

	if len(bars) < cfg.MinDataPoints {
		err := fmt.Errorf("need at least %d bars, got %d: %w", cfg.MinDataPoints, len(bars), models.ErrInsufficientData)
		e.fail(session, "input check", err)
		return nil, err
	}

	effective, err := e.resolver.Resolve(opts)
	if err != nil {
		e.fail(session, "option resolution", err)
		return nil, err
	}

	if report := e.validator.Validate(bars, effective); !report.Valid {
		err := report.AsError()
		e.fail(session, "validation", err)
		return nil, err
	}

	e.setState(StateCacheLookup)
	sum := fingerprintSum(bars, effective)
	key := strconv.FormatUint(sum, 16)

	if cached, ok := e.cache.Get(key); ok {
		e.monitor.RecordCacheHit(session)
		e.setState(StateReturning)
		e.monitor.EndSession(session, nil)
		e.logger.Debug("cache hit", zap.String("fingerprint", key))
		return cached, nil
	}
	e.monitor.RecordCacheMiss(session)

	e.setState(StateComputing)
	result, err := e.compute(ctx, bars, effective, int64(sum))
	if err != nil {
		e.fail(session, "computation", err)
		return nil, err
	}
	result.Meta.Elapsed = e.clock().Sub(start)

	e.setState(StateCaching)
	e.cache.Put(key, result, effective.CacheTTL)

	e.mu.Lock()
	e.calculations++
	e.mu.Unlock()

	e.setState(StateReturning)
	e.monitor.EndSession(session, nil)
	e.logger.Debug("calculation complete",
		zap.String("fingerprint", key),
		zap.Int("bars", len(bars)),
		zap.Int("methods", len(effective.Methods)),
		zap.Duration("elapsed", result.Meta.Elapsed),
	)
	return result, nil
}

// compute runs the numeric pipeline for one cache miss. The seed keeps the
// Monte Carlo leg deterministic for a given fingerprint.
func (e *Engine) compute(ctx context.Context, bars []models.Bar, opts models.CalculationOptions, seed int64) (*models.AnalysisResult, error) {
	precision := opts.Precision

	tr, err := quant.TrueRange(bars)
	if err != nil {
		return nil, err
	}
	atr, err := quant.ATR(tr, opts.ATRPeriod, opts.ATRMethod, precision)
	if err != nil {
		return nil, err
	}

	basis := bars[len(bars)-1]

	// Pivot methods are independent of each other; the first failure cancels
	// the group and fails the whole call with nothing cached.
	group, groupCtx := errgroup.WithContext(ctx)
	sets := make([]models.LevelSet, len(opts.Methods))
	for i, method := range opts.Methods {
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}
			set, err := quant.PivotLevels(method, basis, 0, precision)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	levels := make(map[models.PivotMethod]models.LevelSet, len(sets))
	for _, set := range sets {
		levels[set.Method] = set
	}

	zones, err := quant.BuildZones(sets, atr.Current, opts.ZoneMultipliers, precision)
	if err != nil {
		return nil, err
	}

	// Statistical analyses read the trailing lookback window; risk metrics
	// use the full history.
	window := models.LastBars(bars, opts.Lookback)

	analysis := models.AnalysisBlock{
		ATR:     atr,
		Zones:   zones,
		Quality: quant.QualityScores(window, sets, precision),
	}
	if opts.EnableGamma {
		gamma := quant.GammaProfile(window, sets, precision)
		analysis.Gamma = &gamma
	}
	if opts.EnableSignificance {
		analysis.Significance = quant.TouchSignificance(window, sets, precision)
	}

	closes := models.Closes(bars)
	returns, err := quant.LogReturns(closes)
	if err != nil {
		return nil, err
	}
	volatility, err := quant.Volatility(returns, precision)
	if err != nil {
		return nil, err
	}
	drawdown := quant.Drawdown(closes, precision)
	var95, err := quant.VaRProfile(returns, 0.95, 0, seed, precision)
	if err != nil {
		return nil, err
	}
	var99, err := quant.VaRProfile(returns, 0.99, 0, seed, precision)
	if err != nil {
		return nil, err
	}
	correlation := quant.MarketProxy(volatility.Annualized, precision)

	risk := models.RiskReport{
		Volatility:  volatility,
		Drawdown:    drawdown,
		VaR95:       var95,
		VaR99:       var99,
		Correlation: correlation,
	}

	var performance *models.RatioSet
	if opts.EnablePerformance {
		ratios, err := quant.PerformanceRatios(returns, drawdown.Max, correlation, precision)
		if err != nil {
			return nil, err
		}
		performance = &ratios
	}

	return &models.AnalysisResult{
		Meta: models.ResultMeta{
			ComputedAt: e.clock(),
			Bars:       len(bars),
			From:       bars[0].Timestamp,
			To:         basis.Timestamp,
			Options:    opts,
		},
		Levels:      levels,
		Analysis:    analysis,
		Risk:        risk,
		Performance: performance,
	}, nil
}

// Status reports the pipeline state, cache shape and counters.
func (e *Engine) Status() EngineStatus {
	stats := e.cache.Stats()

	e.mu.RLock()
	defer e.mu.RUnlock()
	return EngineStatus{
		State:        e.state,
		CacheSize:    stats.Size,
		CacheHitRate: stats.HitRate,
		Calculations: e.calculations,
		Errors:       e.errors,
		Cache:        stats,
	}
}

// UpdateConfiguration applies a partial configuration map onto a copy of the
// current config and swaps it atomically. In-flight calculations keep the
// snapshot they started with. Unknown keys and out-of-bounds values are
// rejected with ErrConfigurationInvalid.
func (e *Engine) UpdateConfiguration(partial map[string]any) error {
	if len(partial) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cfg
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &next,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("build configuration decoder: %w", err)
	}
	if err := decoder.Decode(partial); err != nil {
		return fmt.Errorf("apply configuration: %v: %w", err, models.ErrConfigurationInvalid)
	}
	if err := next.validate(); err != nil {
		return err
	}

	e.cfg = next
	e.cache.setCapacity(next.CacheCapacity)
	e.logger.Info("configuration updated",
		zap.Int("min_data_points", next.MinDataPoints),
		zap.Int("cache_capacity", next.CacheCapacity),
	)
	return nil
}

// Reset clears the cache and counters. Configuration is untouched.
func (e *Engine) Reset() {
	e.cache.Flush()
	e.mu.Lock()
	e.calculations = 0
	e.errors = 0
	e.state = StateIdle
	e.mu.Unlock()
	e.logger.Debug("engine reset")
}

// Close stops the background sweeper, waiting for a running sweep to finish,
// and clears the cache.
func (e *Engine) Close() {
	if e.sweeper != nil {
		<-e.sweeper.Stop().Done()
	}
	e.cache.Flush()
	e.logger.Debug("engine closed")
}

func (e *Engine) sweep() {
	if removed := e.cache.Sweep(); removed > 0 {
		e.logger.Debug("cache sweep", zap.Int("expired", removed))
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) fail(session, stage string, err error) {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
	e.monitor.RecordError(stage, err)
	e.monitor.EndSession(session, err)
	e.logger.Warn("calculation failed", zap.String("stage", stage), zap.Error(err))
}
