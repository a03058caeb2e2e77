package index

import (
	"log/slog"

	"github.com/jward/cxref/internal/cursor"
)

// resolveStep produces a candidate key for a cursor, or "".
type resolveStep func(c cursor.Cursor, logger *slog.Logger) string

// resolveSteps run in order; the first non-empty result wins.
var resolveSteps = []resolveStep{
	ownUSR,
	referencedUSR,
	definitionUSR,
}

func ownUSR(c cursor.Cursor, _ *slog.Logger) string {
	return c.USR()
}

func referencedUSR(c cursor.Cursor, logger *slog.Logger) string {
	ref, err := c.Referenced()
	if err != nil {
		logger.Debug("cursor not referenceable",
			"kind", c.Kind().String(),
			"location", c.Location().String(),
			"error", err)
		return ""
	}
	if ref == nil {
		return ""
	}
	return ref.USR()
}

func definitionUSR(c cursor.Cursor, _ *slog.Logger) string {
	def := c.Definition()
	if def == nil {
		return ""
	}
	return def.USR()
}

// ResolveKey returns the stable identifier for c: its own USR, else the USR
// of the cursor it references, else the USR of its definition.
func ResolveKey(c cursor.Cursor, logger *slog.Logger) (string, bool) {
	logger = orNop(logger)
	for _, step := range resolveSteps {
		if key := step(c, logger); key != "" {
			return key, true
		}
	}
	return "", false
}

// KeyFor is ResolveKey with the spelling as a last resort. It returns false
// when c has neither an identifier nor a spelling and cannot be indexed.
// Distinct unnamed entities with the same spelling share a key.
func KeyFor(c cursor.Cursor, logger *slog.Logger) (string, bool) {
	if key, ok := ResolveKey(c, logger); ok {
		return key, true
	}
	if spelling := c.Spelling(); spelling != "" {
		return spelling, true
	}
	return "", false
}
