package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sokinpui/srctidy/internal/fs"
)

// FileName is the project file looked up in the root of a normalize run.
const FileName = ".wsnorm.toml"

// File is the content of a .wsnorm.toml project file.
//
//	suffixes = [".cpp", ".h", ".mm"]
//	exclude  = [".git", "build"]
//	jobs     = 4
//	encoding = "latin1"
type File struct {
	Suffixes []string `toml:"suffixes"`
	Exclude  []string `toml:"exclude"`
	Jobs     int      `toml:"jobs"`
	Encoding string   `toml:"encoding"`
}

// Find returns the path of the project file in root, if there is one.
func Find(root string) (string, bool, error) {
	candidate := filepath.Join(root, FileName)
	info, err := os.Stat(candidate)
	if err != nil {
		if fs.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("%q is a directory", candidate)
	}
	return candidate, true, nil
}

// Load decodes a project file. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func Load(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown key(s) in %s: %s", path, strings.Join(keys, ", "))
	}
	if f.Jobs < 0 {
		return nil, fmt.Errorf("invalid jobs value %d in %s", f.Jobs, path)
	}
	f.Suffixes = fs.NormalizeSuffixes(f.Suffixes)
	return &f, nil
}

// Discover loads the project file from root when present. A missing file
// yields an empty File.
func Discover(root string) (*File, error) {
	path, ok, err := Find(root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &File{}, nil
	}
	return Load(path)
}
