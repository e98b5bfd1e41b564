// Package scratch manages the process-local directory holding recorded
// clips, downloaded voice replies and synthesized speech. Files are kept
// for the lifetime of the session; leftovers from earlier runs are swept at
// startup.
package scratch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// prefixes of files this process creates under the scratch dir.
var ownedPrefixes = []string{"rec_", "tts_"}

// Dir resolves the scratch directory: the configured path when non-empty,
// otherwise a "voxtalk" subdirectory of the system temp dir. The directory
// is created if absent.
func Dir(configured string) (string, error) {
	dir := configured
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "voxtalk")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("scratch: create %s: %w", dir, err)
	}
	return dir, nil
}

// Sweep removes files left behind by earlier sessions: recordings,
// synthesized speech and saved voice replies (any .wav). Files that cannot
// be removed are logged and skipped.
func Sweep(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("scratch sweep skipped", "dir", dir, "err", err)
		return
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !sweepable(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove stale scratch file", "path", path, "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("swept stale scratch files", "dir", dir, "count", removed)
	}
}

func sweepable(name string) bool {
	for _, p := range ownedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return strings.HasSuffix(name, ".wav")
}
