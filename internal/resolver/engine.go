package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/tradein-core/internal/alias"
	"github.com/nerrad567/tradein-core/internal/catalog"
)

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Library is what the engine needs from the reference library.
// *catalog.Cache satisfies it.
type Library interface {
	// Get returns every library device, active or not, in library order.
	Get(ctx context.Context) ([]catalog.LibraryDevice, error)

	// GetByID returns one device, active or not.
	// Returns catalog.ErrDeviceNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*catalog.LibraryDevice, error)
}

// AliasStore is what the engine needs from alias persistence.
// *alias.SQLiteRepository satisfies it.
type AliasStore interface {
	Lookup(ctx context.Context, text string) (*alias.Alias, error)
	Save(ctx context.Context, text, deviceID, createdBy string) error
}

// Source identifies which entry point produced a resolution.
type Source string

// Resolution entry points.
const (
	SourceLibrary Source = "library"
	SourceText    Source = "text"
)

// Resolution describes one completed resolution for observers.
type Resolution struct {
	Source    Source
	Input     string
	Category  string
	Result    MatchResult
	Duration  time.Duration
	Timestamp time.Time
}

// EventPublisher receives every completed resolution.
type EventPublisher interface {
	PublishResolution(r Resolution) error
}

// MetricsRecorder records resolution telemetry.
type MetricsRecorder interface {
	WriteResolutionMetric(strategy, confidence, category string, duration time.Duration)
}

// DefaultAutoAliasCreatedBy is recorded on aliases the engine saves itself.
const DefaultAutoAliasCreatedBy = "auto-match"

// Options configures an Engine.
type Options struct {
	// AutoAlias saves high-confidence text resolutions as aliases.
	AutoAlias bool

	// AutoAliasCreatedBy is the created_by of automatic aliases.
	AutoAliasCreatedBy string

	// BatchWorkers bounds concurrent rows in ResolveBatch.
	BatchWorkers int
}

// Engine resolves device descriptors against the reference library.
//
// Thread Safety: all methods are safe for concurrent use. Set* methods
// must be called before the engine is shared.
type Engine struct {
	library   Library
	aliases   AliasStore
	extractor *Extractor
	opts      Options
	publisher EventPublisher
	metrics   MetricsRecorder
	logger    Logger
}

// NewEngine creates a resolution engine.
//
// Parameters:
//   - library: reference library, normally a *catalog.Cache
//   - aliases: alias persistence
//   - extractor: brand/storage extractor (nil uses the built-in brand table)
//   - opts: auto-alias and batch settings
func NewEngine(library Library, aliases AliasStore, extractor *Extractor, opts Options) *Engine {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	if opts.AutoAliasCreatedBy == "" {
		opts.AutoAliasCreatedBy = DefaultAutoAliasCreatedBy
	}
	if opts.BatchWorkers < 1 {
		opts.BatchWorkers = 1
	}
	return &Engine{
		library:   library,
		aliases:   aliases,
		extractor: extractor,
		opts:      opts,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// SetPublisher sets the observer notified of every resolution.
func (e *Engine) SetPublisher(p EventPublisher) {
	e.publisher = p
}

// SetMetrics sets the telemetry recorder.
func (e *Engine) SetMetrics(m MetricsRecorder) {
	e.metrics = m
}

// MatchToLibrary resolves structured fields, as supplied by an IMEI lookup.
//
// An empty make or model is a manual outcome and the library is not read.
// category restricts matching when non-empty. Library failures are returned.
func (e *Engine) MatchToLibrary(ctx context.Context, mk, model, storage, category string) (MatchResult, error) {
	start := time.Now()
	input := strings.TrimSpace(strings.Join([]string{mk, model, storage}, " "))

	if strings.TrimSpace(mk) == "" || strings.TrimSpace(model) == "" {
		res := manualResult(StrategyNone)
		e.observe(SourceLibrary, input, category, res, start)
		return res, nil
	}

	devices, err := e.activeDevices(ctx, category)
	if err != nil {
		return MatchResult{}, err
	}

	res := MatchToLibrary(devices, Query{Make: mk, Model: model, Storage: storage})
	e.observe(SourceLibrary, input, category, res, start)
	return res, nil
}

// MatchDeviceString resolves an unstructured descriptor such as a manifest
// cell.
//
// A saved alias for the normalised input wins outright, even when it points
// at a device that has since been deactivated. Otherwise, when a brand and
// some model text can be extracted, the structured matcher runs; its result
// is returned if it names a device or a storage choice. The whole input is
// then matched by token overlap.
//
// High-confidence results from the matchers are saved as aliases when
// auto-alias is enabled. A failed save is logged and the result kept.
func (e *Engine) MatchDeviceString(ctx context.Context, raw, category string) (MatchResult, error) {
	start := time.Now()

	if alias.Normalize(raw) == "" {
		res := manualResult(StrategyNone)
		e.observe(SourceText, raw, category, res, start)
		return res, nil
	}

	res, ok, err := e.matchAlias(ctx, raw)
	if err != nil {
		return MatchResult{}, err
	}
	if ok {
		e.observe(SourceText, raw, category, res, start)
		return res, nil
	}

	devices, err := e.activeDevices(ctx, category)
	if err != nil {
		return MatchResult{}, err
	}

	res = e.matchText(devices, raw)
	e.autoAlias(ctx, raw, res)
	e.observe(SourceText, raw, category, res, start)
	return res, nil
}

// matchText runs extraction, the structured matcher and the free-text
// matcher over already filtered devices.
func (e *Engine) matchText(devices []catalog.LibraryDevice, raw string) MatchResult {
	toks := e.extractor.Extract(raw)
	if toks.Brand != "" && toks.Model != "" {
		res := MatchToLibrary(devices, Query{
			Make:    toks.Brand,
			Model:   toks.Model,
			Storage: toks.Storage,
			Raw:     raw,
		})
		if res.Resolved() || res.NeedsStorageSelection {
			return res
		}
	}
	return MatchFreeText(devices, raw)
}

// matchAlias looks raw up in the alias store. ok is false when there is no
// alias.
func (e *Engine) matchAlias(ctx context.Context, raw string) (MatchResult, bool, error) {
	a, err := e.aliases.Lookup(ctx, raw)
	if errors.Is(err, alias.ErrAliasNotFound) {
		return MatchResult{}, false, nil
	}
	if err != nil {
		return MatchResult{}, false, fmt.Errorf("looking up alias: %w", err)
	}

	res := MatchResult{
		DeviceID:   a.DeviceID,
		Confidence: ConfidenceHigh,
		Strategy:   StrategyAlias,
	}

	d, err := e.library.GetByID(ctx, a.DeviceID)
	switch {
	case err == nil:
		res.DeviceName = d.DisplayName()
		res.Storage = d.Storage
		if !d.Active {
			e.logger.Warn("alias points at inactive device", "alias", a.Text, "device_id", a.DeviceID)
		}
	case errors.Is(err, catalog.ErrDeviceNotFound):
		e.logger.Warn("alias points at unknown device", "alias", a.Text, "device_id", a.DeviceID)
	default:
		return MatchResult{}, false, fmt.Errorf("loading aliased device: %w", err)
	}
	return res, true, nil
}

func (e *Engine) autoAlias(ctx context.Context, raw string, res MatchResult) {
	if !e.opts.AutoAlias || !res.Resolved() || res.Confidence != ConfidenceHigh || res.Strategy == StrategyAlias {
		return
	}
	if err := e.aliases.Save(ctx, raw, res.DeviceID, e.opts.AutoAliasCreatedBy); err != nil {
		e.logger.Warn("auto alias save failed", "device_id", res.DeviceID, "error", err)
		return
	}
	e.logger.Debug("auto alias saved", "alias", alias.Normalize(raw), "device_id", res.DeviceID)
}

// SaveAlias records that text refers to deviceID.
//
// Returns alias.ErrInvalidAlias for empty text or device ID and
// catalog.ErrDeviceNotFound when the device is not in the library.
// Inactive devices are accepted.
func (e *Engine) SaveAlias(ctx context.Context, text, deviceID, createdBy string) error {
	deviceID = strings.TrimSpace(deviceID)
	if alias.Normalize(text) == "" || deviceID == "" {
		return alias.ErrInvalidAlias
	}
	if _, err := e.library.GetByID(ctx, deviceID); err != nil {
		return fmt.Errorf("checking device %s: %w", deviceID, err)
	}
	if err := e.aliases.Save(ctx, text, deviceID, createdBy); err != nil {
		return err
	}
	e.logger.Info("alias saved", "alias", alias.Normalize(text), "device_id", deviceID, "created_by", createdBy)
	return nil
}

func (e *Engine) activeDevices(ctx context.Context, category string) ([]catalog.LibraryDevice, error) {
	devices, err := e.library.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading library: %w", err)
	}
	return catalog.FilterActive(devices, category), nil
}

func (e *Engine) observe(source Source, input, category string, res MatchResult, start time.Time) {
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.WriteResolutionMetric(string(res.Strategy), string(res.Confidence), category, elapsed)
	}
	if e.publisher != nil {
		err := e.publisher.PublishResolution(Resolution{
			Source:    source,
			Input:     input,
			Category:  category,
			Result:    res,
			Duration:  elapsed,
			Timestamp: start.UTC(),
		})
		if err != nil {
			e.logger.Warn("publishing resolution failed", "strategy", res.Strategy, "error", err)
		}
	}
}
