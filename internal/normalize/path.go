// Package normalize canonicalizes source file paths against a working
// directory and a base directory, per spec.md §6, so the same file
// referenced two different ways (relative to cwd, absolute, relative to
// a build root) produces one stable database key.
//
// Grounded on the teacher's resolveImportDir (std/compiler/frontend.go),
// which resolves an import path against a base directory with a single
// string join; normalization here generalizes that to the general
// relative/absolute/passthrough cases a real source tree needs.
package normalize

import (
	"path/filepath"
	"strings"
)

// Config names the two directories every path is resolved against.
type Config struct {
	WorkingDir string // cwd at analysis time
	BaseDir    string // the configured build root
}

// Path canonicalizes raw into a stable, slash-separated key:
//   - `<...>` system-header-style paths pass through unchanged (spec.md
//     §6's "<...> passthrough rule" — these name a toolchain-relative
//     location the analysis never resolves itself).
//   - absolute paths are made relative to BaseDir when they fall under
//     it, otherwise kept absolute.
//   - relative paths are resolved against WorkingDir, then the same
//     BaseDir-relative rule is applied.
//
// The result always uses forward slashes so database keys are stable
// across platforms.
func (c Config) Path(raw string) string {
	if strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">") {
		return raw
	}

	abs := raw
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.WorkingDir, abs)
	}
	abs = filepath.Clean(abs)

	if c.BaseDir != "" {
		if rel, err := filepath.Rel(c.BaseDir, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(abs)
}
