package store

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the given files, path and content, in sorted path
// order. The fingerprint of a unit covers its source and every header it
// included, so editing any of them changes it.
func Fingerprint(paths []string) (string, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	h := xxhash.New()
	for _, p := range sorted {
		if _, err := h.WriteString(p); err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", p, err)
		}
		h.Write([]byte{0})
		if err := hashFile(h, p); err != nil {
			return "", err
		}
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// SettingsFingerprint hashes the ordered settings a unit was indexed
// with. Together with Fingerprint it decides whether a stored unit is
// still current.
func SettingsFingerprint(settings ...string) string {
	h := xxhash.New()
	for _, s := range settings {
		h.WriteString(s)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// UnitFingerprint combines a dependency fingerprint with a settings
// fingerprint into the value stored for a unit.
func UnitFingerprint(deps, settings string) string {
	return deps + "-" + settings
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return nil
}
