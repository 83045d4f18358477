package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSuffixes are the file name suffixes treated as source files when
// none are configured.
var DefaultSuffixes = []string{".cpp", ".h"}

// DefaultExcludes are directory names skipped during a walk when none are
// configured.
var DefaultExcludes = []string{".git"}

// ResolveRoot returns the absolute form of root, defaulting to the current
// working directory. The root must exist and be a directory.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root directory '%s': %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("invalid root directory '%s': %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root '%s' is not a directory", root)
	}
	return abs, nil
}

// NormalizeSuffixes gives every suffix a leading dot and drops empty entries.
func NormalizeSuffixes(suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if s[0] != '.' {
			s = "." + s
		}
		out = append(out, s)
	}
	return out
}

// HasSuffix reports whether name ends with one of suffixes.
func HasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Walk returns every regular file under root whose name ends with one of
// suffixes, in lexical order. Directories named in excludes are not entered.
// Any directory that cannot be read fails the walk.
func Walk(root string, suffixes, excludes []string) ([]string, error) {
	skip := make(map[string]struct{}, len(excludes))
	for _, name := range excludes {
		skip[name] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if d.IsDir() {
			if _, ok := skip[d.Name()]; ok && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if HasSuffix(d.Name(), suffixes) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// WriteFileKeepMode replaces the content of an existing file, keeping its
// permission bits.
func WriteFileKeepMode(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RelativeTo converts absolute paths to paths relative to base for display,
// falling back to the absolute path when that is not possible.
func RelativeTo(base string, paths []string) []string {
	rel := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(base, p)
		if err != nil || strings.HasPrefix(r, "..") {
			rel[i] = p
			continue
		}
		rel[i] = r
	}
	return rel
}

// IsNotExist reports whether err means a path does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}
