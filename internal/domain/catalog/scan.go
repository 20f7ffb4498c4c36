package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// Scanner discovers and parses descriptor files.
type Scanner struct {
	Dirs    []string
	Pattern string
	log     *zap.Logger
}

// NewScanner creates a scanner over dirs. Files whose path relative to their
// directory matches pattern (doublestar syntax) are parsed.
func NewScanner(dirs []string, pattern string, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{Dirs: dirs, Pattern: pattern, log: log}
}

// Scan walks every directory and returns the valid descriptors. Malformed
// files are skipped with a warning. When two files claim the same class,
// the one from the earlier directory (then the lexically smaller path) wins.
func (s *Scanner) Scan() ([]Descriptor, error) {
	if !doublestar.ValidatePattern(s.Pattern) {
		return nil, doublestar.ErrBadPattern
	}

	var (
		out   []Descriptor
		owner = make(map[string]string)
	)
	for _, dir := range s.Dirs {
		paths, err := s.match(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.log.Debug("descriptor directory missing", zap.String("dir", dir))
				continue
			}
			return nil, err
		}

		for _, path := range paths {
			d, err := ParseFile(path)
			if err != nil {
				if errors.Is(err, ErrNotApplication) {
					s.log.Debug("skipping descriptor", zap.String("path", path), zap.Error(err))
				} else {
					s.log.Warn("skipping malformed descriptor", zap.String("path", path), zap.Error(err))
				}
				continue
			}
			if prev, dup := owner[d.Class]; dup {
				s.log.Warn("duplicate descriptor class",
					zap.String("class", d.Class),
					zap.String("kept", prev),
					zap.String("ignored", path),
				)
				continue
			}
			owner[d.Class] = path
			out = append(out, d)
		}
	}
	return out, nil
}

// match returns the sorted files under dir that match the pattern.
func (s *Scanner) match(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		paths []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		ok, err := doublestar.PathMatch(s.Pattern, rel)
		if err != nil || !ok {
			return nil
		}

		mu.Lock()
		paths = append(paths, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
