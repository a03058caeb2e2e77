package cxref

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/cxref/internal/depfile"
	"github.com/jward/cxref/internal/frontend"
	"github.com/jward/cxref/internal/index"
	"github.com/jward/cxref/internal/logging"
	"github.com/jward/cxref/internal/output"
	"github.com/jward/cxref/internal/runtime"
	"github.com/jward/cxref/internal/store"
)

// ErrCannotOpen is returned when a request's source file cannot be read.
var ErrCannotOpen = errors.New("cannot open file")

// IndexSuffix is appended to the source's base name when a request names
// no output file.
const IndexSuffix = ".indx"

// Engine orchestrates indexing: parse, walk, filter, then write the index
// artifact, the dependency rule and the project store.
type Engine struct {
	logger *slog.Logger
	store  *store.Store

	dbPath     string
	scriptsDir string
	depSpec    string
	symSpec    string
	excludes   []string
	workers    int
	force      bool
	aggregate  *index.SymbolTable

	runtime   *runtime.Runtime
	depFilter *runtime.Filter
	symFilter *runtime.Filter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore records every indexed unit in the SQLite database at dbPath,
// creating it when missing.
func WithStore(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// WithParallel sets how many units IndexFiles processes at once. Values
// below 2 index serially.
func WithParallel(workers int) Option {
	return func(e *Engine) {
		e.workers = workers
	}
}

// WithDependencyFilter drops dependencies from generated rules unless the
// Risor filter spec evaluates truthy.
func WithDependencyFilter(spec string) Option {
	return func(e *Engine) {
		e.depSpec = spec
	}
}

// WithSymbolFilter drops symbols from the written index unless the Risor
// filter spec evaluates truthy.
func WithSymbolFilter(spec string) Option {
	return func(e *Engine) {
		e.symSpec = spec
	}
}

// WithScriptsDir resolves "@script" filter specs and Risor imports
// relative to dir.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithExcludes drops dependencies matching any doublestar pattern.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		e.excludes = append(e.excludes, patterns...)
	}
}

// WithForce reindexes units whose fingerprint is unchanged.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// WithAggregate merges every unit's filtered table into table as well.
func WithAggregate(table *index.SymbolTable) Option {
	return func(e *Engine) {
		e.aggregate = table
	}
}

// New creates an Engine. Filters are compiled and the store is opened and
// migrated here, so configuration errors surface before any indexing.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Nop()
	}

	if _, err := depfile.ExcludePatterns(e.excludes); err != nil {
		return nil, fmt.Errorf("cxref: %w", err)
	}

	e.runtime = runtime.NewRuntime(e.scriptsDir, runtime.WithRuntimeLogger(e.logger))
	var err error
	if e.depFilter, err = e.runtime.Compile(e.depSpec); err != nil {
		return nil, fmt.Errorf("cxref: dependency filter: %w", err)
	}
	if e.symFilter, err = e.runtime.Compile(e.symSpec); err != nil {
		return nil, fmt.Errorf("cxref: symbol filter: %w", err)
	}

	if e.dbPath != "" {
		if dir := filepath.Dir(e.dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("cxref: create %s: %w", dir, err)
			}
		}
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("cxref: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("cxref: migrate: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the project store, or nil when none is configured.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Query returns a QueryBuilder over the project store.
func (e *Engine) Query() *QueryBuilder {
	return NewQueryBuilder(e.store)
}

// Request describes one unit to index.
type Request struct {
	Source      string
	Output      string // default: base name of Source + IndexSuffix
	Depfile     string // empty: no dependency rule
	Target      string // rule target; default: Output
	Defines     []string
	IncludeDirs []string
	Std         string
	Format      output.Format // empty: picked from the Output extension
}

// Result reports what indexing one unit produced.
type Result struct {
	Source  string
	Output  string
	Table   *index.SymbolTable // loaded from Output when Skipped
	Deps    []string           // every file the unit read, unfiltered
	Stats   index.Stats
	Skipped bool // fingerprint unchanged since the stored run
	Elapsed time.Duration
}

func (r Request) output() string {
	if r.Output != "" {
		return r.Output
	}
	return filepath.Base(r.Source) + IndexSuffix
}

func (r Request) format() output.Format {
	if r.Format != "" {
		return r.Format
	}
	return output.FormatForPath(r.output())
}

// IndexFile indexes one unit and writes its artifacts directly.
func (e *Engine) IndexFile(ctx context.Context, req Request) (*Result, error) {
	var w store.UnitWriter
	if e.store != nil {
		w = e.store
	}
	return e.indexFile(ctx, req, w)
}

func (e *Engine) indexFile(ctx context.Context, req Request, w store.UnitWriter) (*Result, error) {
	start := time.Now()
	res := &Result{Source: req.Source, Output: req.output()}

	if _, err := os.Stat(req.Source); err != nil {
		e.forget(req.Source)
		return nil, fmt.Errorf("%w %q", ErrCannotOpen, req.Source)
	}

	settings := e.settingsFingerprint(req)
	if e.unchanged(req, settings) {
		return e.reuse(req, res, start)
	}

	tu, err := frontend.Parse(ctx, frontend.Options{
		Source:      req.Source,
		Defines:     req.Defines,
		IncludeDirs: req.IncludeDirs,
		Std:         req.Std,
		Logger:      e.logger,
	})
	if err != nil {
		return nil, err
	}

	var table *index.SymbolTable
	table, res.Stats, err = buildIndex(ctx, tu, e.logger)
	if err != nil {
		return nil, err
	}
	res.Deps = tu.Includes()

	table, err = e.filterSymbols(ctx, table)
	if err != nil {
		return nil, err
	}
	res.Table = table

	if req.Depfile != "" {
		e.writeDepfile(ctx, req, tu)
	}

	if err := output.Save(res.Output, table, req.format()); err != nil {
		return nil, err
	}

	if w != nil {
		fp, err := store.Fingerprint(res.Deps)
		if err != nil {
			return nil, fmt.Errorf("cxref: fingerprint %s: %w", req.Source, err)
		}
		rec := store.UnitRecord{
			Path:        req.Source,
			Fingerprint: store.UnitFingerprint(fp, settings),
			Deps:        res.Deps,
			Table:       table,
		}
		if err := w.SaveUnit(rec); err != nil {
			return nil, fmt.Errorf("cxref: save %s: %w", req.Source, err)
		}
	}

	if e.aggregate != nil {
		e.aggregate.MergeTable(table)
	}

	res.Elapsed = time.Since(start)
	e.logger.Debug("unit written",
		"unit", req.Source,
		"output", res.Output,
		"symbols", table.Len(),
		"deps", len(res.Deps),
		"elapsed", res.Elapsed)
	return res, nil
}

// unchanged reports whether the stored fingerprint of req's unit still
// matches the files it read last time and the settings it was indexed
// with, and its output still exists.
func (e *Engine) unchanged(req Request, settings string) bool {
	if e.store == nil || e.force {
		return false
	}
	if _, err := os.Stat(req.output()); err != nil {
		return false
	}
	unit, err := e.store.UnitByPath(req.Source)
	if err != nil || unit == nil {
		return false
	}
	deps, err := e.store.UnitDeps(unit.ID)
	if err != nil || len(deps) == 0 {
		return false
	}
	fp, err := store.Fingerprint(deps)
	if err != nil {
		// A dependency vanished; the unit must be rebuilt.
		return false
	}
	return store.UnitFingerprint(fp, settings) == unit.Fingerprint
}

// reuse completes a skipped unit from its existing artifact so the
// aggregate still covers it.
func (e *Engine) reuse(req Request, res *Result, start time.Time) (*Result, error) {
	e.logger.Info("unit unchanged, skipped", "unit", req.Source)
	table, err := output.Load(res.Output, e.logger)
	if err != nil {
		return nil, err
	}
	res.Skipped = true
	res.Table = table
	if e.aggregate != nil {
		e.aggregate.MergeTable(table)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// settingsFingerprint covers everything besides file contents that shapes
// a unit's artifacts. Filters contribute their source text.
func (e *Engine) settingsFingerprint(req Request) string {
	settings := []string{
		"std=" + req.Std,
		"format=" + string(req.format()),
		"output=" + req.output(),
		"depfile=" + req.Depfile,
		"target=" + req.Target,
		"deps-filter=" + e.depFilter.Source(),
		"symbols-filter=" + e.symFilter.Source(),
	}
	for _, d := range req.Defines {
		settings = append(settings, "D="+d)
	}
	for _, dir := range req.IncludeDirs {
		settings = append(settings, "I="+dir)
	}
	for _, x := range e.excludes {
		settings = append(settings, "exclude="+x)
	}
	return store.SettingsFingerprint(settings...)
}

// forget drops a unit whose source has disappeared from the store.
func (e *Engine) forget(path string) {
	if e.store == nil {
		return
	}
	if err := e.store.DeleteUnit(path); err != nil {
		e.logger.Warn("stale unit not removed", "unit", path, "error", err)
	}
}

func (e *Engine) filterSymbols(ctx context.Context, table *index.SymbolTable) (*index.SymbolTable, error) {
	if e.symFilter == nil {
		return table, nil
	}
	var firstErr error
	kept := table.Select(func(key string, entry *index.SymbolEntry) bool {
		if firstErr != nil {
			return false
		}
		keep, err := e.symFilter.Keep(ctx, runtime.SymbolGlobals(key, entry))
		if err != nil {
			firstErr = fmt.Errorf("cxref: symbol filter %s on %s: %w", e.symFilter, key, err)
			return false
		}
		return keep
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return kept, nil
}

// writeDepfile writes the unit's dependency rule. Failures are logged;
// the index artifact is still written.
func (e *Engine) writeDepfile(ctx context.Context, req Request, tu *frontend.TranslationUnit) {
	target := req.Target
	if target == "" {
		target = req.output()
	}

	deps, err := e.dependencies(ctx, tu)
	if err == nil {
		err = depfile.Write(req.Depfile, target, deps)
	}
	if err != nil {
		e.logger.Error("dependency rule not written", "unit", req.Source, "path", req.Depfile, "error", err)
	}
}

func (e *Engine) dependencies(ctx context.Context, tu *frontend.TranslationUnit) ([]string, error) {
	var filters []depfile.Filter
	if len(e.excludes) > 0 {
		exclude, err := depfile.ExcludePatterns(e.excludes)
		if err != nil {
			return nil, err
		}
		filters = append(filters, exclude)
	}
	if e.depFilter != nil {
		filters = append(filters, func(path string) (bool, error) {
			return e.depFilter.Keep(ctx, runtime.DependencyGlobals(path, tu.IsSystem(path)))
		})
	}
	return depfile.Apply(depfile.Unique(tu.Includes()), filters...)
}
