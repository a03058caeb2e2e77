package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/cxref"
	"github.com/jward/cxref/internal/frontend"
	"github.com/jward/cxref/internal/index"
	"github.com/jward/cxref/internal/output"
)

var (
	flagSource      string
	flagOutput      string
	flagDepfile     string
	flagTarget      string
	flagDefines     []string
	flagIncludes    []string
	flagStd         string
	flagIndexFormat string
	flagIndexDB     string
	flagForce       bool
	flagJobs        int
	flagMerged      string
	flagExcludes    []string
	flagDepsFilter  string
	flagSymFilter   string
)

var indexCmd = &cobra.Command{
	Use:   "index -s <source> [files...]",
	Short: "Index C/C++ translation units",
	Long: `Parses each source file and every header it includes, then writes a symbol
table keyed by USR. The output of -s defaults to <basename>.indx in the
current directory; extra files get the same derived name and are indexed
in parallel.`,
	Example: `  cxref index -s main.c -d main.d -I include -D DEBUG=1
  cxref index -s main.c util.c parse.c --db .cxref/index.db`,
	RunE: runIndex,
}

func init() {
	f := indexCmd.Flags()
	f.StringVarP(&flagSource, "source", "s", "", "input file")
	f.StringVarP(&flagOutput, "output", "o", "", "index file for -s (default: <basename>.indx)")
	f.StringVarP(&flagDepfile, "dependency-file", "d", "", "write a Makefile dependency rule for -s")
	f.StringVar(&flagTarget, "target", "", "dependency rule target (default: the index file)")
	f.StringArrayVarP(&flagDefines, "define", "D", nil, "define a macro, NAME or NAME=VALUE")
	f.StringArrayVarP(&flagIncludes, "include", "I", nil, "add an include directory")
	f.StringVar(&flagStd, "std", "", "language standard, e.g. c11 or c++17")
	f.StringVar(&flagIndexFormat, "format", "", "index file format: json|yaml (default: by extension)")
	f.StringVar(&flagIndexDB, "db", "", "also record units in this SQLite database")
	f.BoolVar(&flagForce, "force", false, "reindex units whose dependencies are unchanged")
	f.IntVarP(&flagJobs, "jobs", "j", runtime.NumCPU(), "units indexed concurrently")
	f.StringVarP(&flagMerged, "merged", "m", "", "also write the union of every unit's table here")
	f.StringArrayVar(&flagExcludes, "exclude", nil, "drop dependencies matching a glob")
	f.StringVar(&flagDepsFilter, "deps-filter", "", "Risor filter over dependencies (inline or @file)")
	f.StringVar(&flagSymFilter, "symbols-filter", "", "Risor filter over symbols (inline or @file)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	reqs, err := buildRequests(args)
	if err != nil {
		return err
	}

	var aggregate *index.SymbolTable
	opts := engineOptions()
	if flagMerged != "" {
		aggregate = index.NewSymbolTable()
		opts = append(opts, cxref.WithAggregate(aggregate))
	}

	engine, err := cxref.New(opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var results []*cxref.Result
	if len(reqs) == 1 {
		res, err := engine.IndexFile(ctx, reqs[0])
		if err != nil {
			return err
		}
		results = []*cxref.Result{res}
	} else {
		results, err = engine.IndexFiles(ctx, reqs)
		if err != nil {
			return err
		}
	}

	if aggregate != nil {
		if err := output.Save(flagMerged, aggregate, output.FormatForPath(flagMerged)); err != nil {
			return err
		}
	}

	printIndexSummary(results, time.Since(start))
	return nil
}

// buildRequests merges the project file's [index] section with the flags.
// Flags append to list settings and replace scalar ones. Without --std,
// every source needs a C or C++ extension.
func buildRequests(args []string) ([]cxref.Request, error) {
	sources := args
	if flagSource != "" {
		sources = append([]string{flagSource}, args...)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no source file given (use -s)")
	}

	format, err := resolveIndexFormat()
	if err != nil {
		return nil, err
	}

	std := cfg.Index.Std
	if flagStd != "" {
		std = flagStd
	}
	defines := append(append([]string{}, cfg.Index.Defines...), flagDefines...)
	includes := append(append([]string{}, cfg.Index.IncludeDirs...), flagIncludes...)

	reqs := make([]cxref.Request, len(sources))
	for i, src := range sources {
		if std == "" && !frontend.IsSource(src) {
			return nil, fmt.Errorf("%s: not a C or C++ source (pass --std)", src)
		}
		reqs[i] = cxref.Request{
			Source:      src,
			Defines:     defines,
			IncludeDirs: includes,
			Std:         std,
			Format:      format,
		}
	}
	if flagSource != "" {
		reqs[0].Output = flagOutput
		reqs[0].Depfile = flagDepfile
		reqs[0].Target = flagTarget
	}
	return reqs, nil
}

// resolveIndexFormat returns the explicit artifact format, or "" to pick
// it from each output file's extension.
func resolveIndexFormat() (output.Format, error) {
	name := flagIndexFormat
	if name == "" && flagOutput == "" {
		name = cfg.Index.Format
	}
	if name == "" {
		return "", nil
	}
	return output.ParseFormat(name)
}

func engineOptions() []cxref.Option {
	opts := []cxref.Option{
		cxref.WithLogger(logger),
		cxref.WithParallel(flagJobs),
		cxref.WithForce(flagForce),
		cxref.WithExcludes(append(append([]string{}, cfg.Deps.Exclude...), flagExcludes...)...),
	}
	if db := resolveIndexDB(); db != "" {
		opts = append(opts, cxref.WithStore(db))
	}

	depsFilter := cfg.Deps.Filter
	if flagDepsFilter != "" {
		depsFilter = absScript(flagDepsFilter)
	}
	symFilter := cfg.Symbols.Filter
	if flagSymFilter != "" {
		symFilter = absScript(flagSymFilter)
	}
	opts = append(opts,
		cxref.WithDependencyFilter(depsFilter),
		cxref.WithSymbolFilter(symFilter),
	)
	if cfg.Path != "" {
		opts = append(opts, cxref.WithScriptsDir(filepath.Dir(cfg.Path)))
	}
	return opts
}

// absScript anchors a command-line "@file" filter to the working
// directory; inline sources pass through.
func absScript(spec string) string {
	path, ok := strings.CutPrefix(spec, "@")
	if !ok || filepath.IsAbs(path) {
		return spec
	}
	if abs, err := filepath.Abs(path); err == nil {
		return "@" + abs
	}
	return spec
}

func resolveIndexDB() string {
	if flagIndexDB != "" {
		return flagIndexDB
	}
	return cfg.Store.Path
}

func printIndexSummary(results []*cxref.Result, elapsed time.Duration) {
	var indexed, skipped, symbols int
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Skipped {
			skipped++
			continue
		}
		indexed++
		symbols += res.Table.Len()
		logger.Debug("unit done", "unit", res.Source, "output", res.Output, "elapsed", res.Elapsed)
	}
	fmt.Fprintf(os.Stderr, "Indexed %d unit(s), %d unchanged, %d symbol(s) in %s\n",
		indexed, skipped, symbols, elapsed.Round(time.Millisecond))
}
