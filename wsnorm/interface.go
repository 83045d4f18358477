package wsnorm

import (
	"fmt"

	"github.com/sokinpui/srctidy/cli"
	"github.com/sokinpui/srctidy/internal/fs"
	"github.com/sokinpui/srctidy/internal/normalize"
	"github.com/sokinpui/srctidy/model"
)

// Config for using wsnorm as a library.
type Config struct {
	// File suffixes to normalize, e.g. ".cpp" or "h". Empty means the
	// project file's list or the default {".cpp", ".h"}.
	Suffixes []string
	// Directory names to skip. Empty means {".git"}.
	Excludes []string
	// Files processed concurrently. Zero means one.
	Jobs int
	// Text encoding label; empty means UTF-8.
	Encoding string
	// Report changes without writing files.
	DryRun bool
	// Suppress console messages.
	Quiet bool
}

// NormalizeTree normalizes every matching file under root and returns a
// summary of the files that changed.
func NormalizeTree(root string, config Config) (model.Summary, error) {
	cliCfg := &cli.Config{
		Root:     root,
		Suffixes: fs.NormalizeSuffixes(config.Suffixes),
		Excludes: config.Excludes,
		Jobs:     config.Jobs,
		Encoding: config.Encoding,
		DryRun:   config.DryRun,
		Quiet:    config.Quiet,
	}

	app, err := New(cliCfg)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to initialize wsnorm app: %w", err)
	}
	return app.Execute()
}

// NormalizeFile normalizes a single file regardless of its suffix and
// reports whether it changed.
func NormalizeFile(path string, config Config) (bool, error) {
	return normalize.File(path, normalize.Options{
		Encoding: config.Encoding,
		DryRun:   config.DryRun,
	})
}

// NormalizeText returns the normalized form of content.
func NormalizeText(content string) string {
	return normalize.Text(content)
}
