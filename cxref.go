package cxref

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jward/cxref/internal/cursor"
	"github.com/jward/cxref/internal/depfile"
	"github.com/jward/cxref/internal/index"
	"github.com/jward/cxref/internal/logging"
)

// BuildIndex walks the cursor tree of tu and returns a fresh symbol table
// holding every wanted cursor. Cursors with no usable key are logged and
// skipped.
func BuildIndex(ctx context.Context, tu cursor.TranslationUnit, logger *slog.Logger) (*index.SymbolTable, error) {
	table, _, err := buildIndex(ctx, tu, logger)
	return table, err
}

func buildIndex(ctx context.Context, tu cursor.TranslationUnit, logger *slog.Logger) (*index.SymbolTable, index.Stats, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	table := index.NewSymbolTable()
	stats, err := index.Walk(ctx, tu.Cursor(), table, logger)
	if err != nil {
		return nil, stats, fmt.Errorf("cxref: index %s: %w", tu.Spelling(), err)
	}
	logger.Debug("unit indexed",
		"unit", tu.Spelling(),
		"visited", stats.Visited,
		"indexed", stats.Indexed,
		"unindexable", stats.Unindexable,
		"symbols", table.Len())
	return table, stats, nil
}

// BuildDependencyRule renders the Makefile rule stating that target
// depends on every file tu read.
func BuildDependencyRule(tu cursor.TranslationUnit, target string) string {
	return depfile.Rule(target, tu.Includes())
}
