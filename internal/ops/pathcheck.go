package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import
	PathCheckWrite                      // export
)

// extensions accepted per mode. Exports are always JSON lines.
var extensions = map[PathCheckMode]map[string]bool{
	PathCheckRead:  {".json": true, ".jsonl": true},
	PathCheckWrite: {".jsonl": true},
}

// ValidatePath checks an import or export path before it is opened.
//
// The path must be free of "..", carry an accepted extension, and sit directly
// in ~/.timeline/exports or one of cfg.AllowedPaths unless cfg.AllowUnsafePaths
// is set. Neither the file nor its directory may be a symlink. Read paths must
// exist.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !extensions[mode][strings.ToLower(filepath.Ext(cleaned))] {
		if mode == PathCheckWrite {
			return errors.NewInvalidRequest("path must have .jsonl extension")
		}
		return errors.NewInvalidRequest("path must have .json or .jsonl extension")
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	policy, err := newPathPolicy(cfg)
	if err != nil {
		return err
	}
	if err := policy.checkDir(filepath.Dir(abs)); err != nil {
		return err
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// pathPolicy is the set of directories import and export may touch.
type pathPolicy struct {
	unrestricted bool
	dirs         []string // absolute, symlinks resolved
}

func newPathPolicy(cfg *config.Config) (*pathPolicy, error) {
	if cfg != nil && cfg.AllowUnsafePaths {
		return &pathPolicy{unrestricted: true}, nil
	}

	candidates := []string{DefaultExportsDir()}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			// relative entries would depend on the working directory
			if filepath.IsAbs(p) {
				candidates = append(candidates, p)
			}
		}
	}

	policy := &pathPolicy{dirs: make([]string, 0, len(candidates))}
	for _, dir := range candidates {
		dir = filepath.Clean(dir)
		if isSymlink(dir) {
			resolved, err := filepath.EvalSymlinks(dir)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			dir = resolved
		}
		policy.dirs = append(policy.dirs, dir)
	}
	return policy, nil
}

// checkDir accepts dir only when it is one of the allowed directories itself.
// Subdirectories are refused so no intermediate component can be swapped for
// a symlink between validation and open; openNoFollow covers the file.
func (p *pathPolicy) checkDir(dir string) error {
	if p.unrestricted {
		return nil
	}
	dir = filepath.Clean(dir)
	for _, allowed := range p.dirs {
		if dir == allowed {
			if isSymlink(dir) {
				return errors.NewInvalidRequest("parent directory must not be a symlink")
			}
			return nil
		}
	}
	return errors.NewInvalidRequest(fmt.Sprintf(
		"file must be directly in an allowed directory (no subdirectories); allowed: %v", p.dirs))
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// DefaultExportsDir returns ~/.timeline/exports.
func DefaultExportsDir() string {
	return filepath.Join(config.DefaultBaseDir(), db.ExportsDir)
}

// containsTraversal reports whether any component of path is "..". Forward
// slashes separate components on every platform.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}

// SanitizeForFilename turns a campaign name into a filename stem: path
// separators, spaces and dashes become single dashes, control characters and
// dot-only components are dropped. An empty result becomes "campaign".
func SanitizeForFilename(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\' || r == '-' || unicode.IsSpace(r)
	})

	kept := parts[:0]
	for _, part := range parts {
		part = strings.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return -1
			}
			return r
		}, part)
		if strings.Trim(part, ".") == "" {
			continue
		}
		kept = append(kept, part)
	}

	if len(kept) == 0 {
		return "campaign"
	}
	return strings.Join(kept, "-")
}
