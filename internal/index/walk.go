package index

import (
	"context"
	"log/slog"
	"slices"

	"github.com/jward/cxref/internal/cursor"
	"github.com/jward/cxref/internal/logging"
)

// Stats summarizes one walk.
type Stats struct {
	Visited     int // cursors popped off the stack
	Indexed     int // wanted cursors merged into the table
	Unindexable int // wanted cursors with no key
}

// Walk visits root and every descendant depth-first, pre-order, in the
// order the front end supplies children. Wanted cursors are merged into
// table; every cursor's children are visited whether or not the cursor
// itself was wanted. The walk uses an explicit stack, so tree depth is
// bounded only by memory.
func Walk(ctx context.Context, root cursor.Cursor, table *SymbolTable, logger *slog.Logger) (Stats, error) {
	logger = orNop(logger)
	var stats Stats
	if root == nil {
		return stats, nil
	}

	stack := []cursor.Cursor{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stats.Visited++

		if IsWanted(c) {
			if handleCursor(c, table, logger) {
				stats.Indexed++
			} else {
				stats.Unindexable++
			}
		}

		children := c.Children()
		for _, child := range slices.Backward(children) {
			stack = append(stack, child)
		}
	}
	return stats, nil
}

// handleCursor merges one wanted cursor. It reports false when the cursor
// has no usable key.
func handleCursor(c cursor.Cursor, table *SymbolTable, logger *slog.Logger) bool {
	key, ok := KeyFor(c, logger)
	if !ok {
		logger.Warn("no usr or spelling, cursor skipped",
			"kind", c.Kind().String(),
			"location", c.Location().String())
		return false
	}
	table.Merge(key, c.DisplayName(), NewOccurrence(c), OccurrenceKinds(c))
	return true
}

func orNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.Nop()
	}
	return logger
}
