package wsnorm

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sokinpui/srctidy/cli"
	"github.com/sokinpui/srctidy/internal/config"
	"github.com/sokinpui/srctidy/internal/fs"
	"github.com/sokinpui/srctidy/internal/normalize"
	"github.com/sokinpui/srctidy/internal/nvim"
	"github.com/sokinpui/srctidy/internal/ui"
	"github.com/sokinpui/srctidy/model"
)

// ProgressUpdate is a callback function to report progress.
type ProgressUpdate func(current, total int)

// App orchestrates a normalize run over one root directory.
type App struct {
	cfg              *cli.Config
	root             string
	suffixes         []string
	excludes         []string
	jobs             int
	opts             normalize.Options
	normalizeFile    func(path string, opts normalize.Options) (bool, error)
	progressCallback ProgressUpdate

	mu       sync.Mutex
	done     int
	modified []string
}

// DetailedError enhances a standard error with a stack trace. It is returned
// for panics raised while walking or while processing any file.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates a new App instance. Flag values take precedence over the
// project file, which takes precedence over the built-in defaults.
func New(cfg *cli.Config) (*App, error) {
	root, err := fs.ResolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}

	var file *config.File
	if cfg.ConfigFile != "" {
		file, err = config.Load(cfg.ConfigFile)
	} else {
		file, err = config.Discover(root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project file: %w", err)
	}

	a := &App{
		cfg:           cfg,
		root:          root,
		suffixes:      firstNonEmpty(cfg.Suffixes, file.Suffixes, fs.DefaultSuffixes),
		excludes:      firstNonEmpty(cfg.Excludes, file.Exclude, fs.DefaultExcludes),
		jobs:          1,
		normalizeFile: normalize.File,
		opts: normalize.Options{
			Encoding: cfg.Encoding,
			DryRun:   cfg.DryRun,
		},
	}
	if cfg.Jobs > 0 {
		a.jobs = cfg.Jobs
	} else if file.Jobs > 0 {
		a.jobs = file.Jobs
	}
	if a.opts.Encoding == "" {
		a.opts.Encoding = file.Encoding
	}
	if _, err := normalize.LookupEncoding(a.opts.Encoding); err != nil {
		return nil, err
	}
	return a, nil
}

// Root returns the absolute root directory of the run.
func (a *App) Root() string {
	return a.root
}

// Suffixes returns the suffixes a file name must end with to be normalized.
func (a *App) Suffixes() []string {
	return a.suffixes
}

// SetProgressCallback sets a function to be called for progress updates.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

// Execute walks the root and normalizes every matching file.
func (a *App) Execute() (summary model.Summary, err error) {
	defer recoverPanic(&err)

	a.header("--- Normalizing whitespace under %s ---", a.root)

	files, err := fs.Walk(a.root, a.suffixes, a.excludes)
	if err != nil {
		return model.Summary{}, err
	}

	a.mu.Lock()
	a.done, a.modified = 0, nil
	a.mu.Unlock()

	if err := a.normalizeFiles(context.Background(), files); err != nil {
		return model.Summary{}, err
	}

	sort.Strings(a.modified)
	summary = model.Summary{
		Root:     a.root,
		Visited:  len(files),
		Modified: a.modified,
		DryRun:   a.cfg.DryRun,
	}
	if len(files) == 0 {
		summary.Message = fmt.Sprintf("No files ending in %v found.", a.suffixes)
	}

	if a.cfg.ReloadNvim && !a.cfg.DryRun && len(summary.Modified) > 0 {
		a.reloadInNvim(&summary)
	}

	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

// normalizeFiles processes files with at most a.jobs in flight. The first
// error stops the run.
func (a *App) normalizeFiles(ctx context.Context, files []string) error {
	total := len(files)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.jobs)
	for _, path := range files {
		g.Go(func() (err error) {
			defer recoverPanic(&err)
			if err := gctx.Err(); err != nil {
				return err
			}
			changed, err := a.normalizeFile(path, a.opts)
			if err != nil {
				return err
			}
			a.record(path, changed, total)
			return nil
		})
	}
	return g.Wait()
}

func (a *App) record(path string, changed bool, total int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.done++
	if changed {
		a.modified = append(a.modified, path)
		if a.cfg.DryRun {
			a.info("Would rewrite %s", path)
		} else {
			a.info("Rewrote %s", path)
		}
	}
	if a.progressCallback != nil {
		a.progressCallback(a.done, total)
	}
}

// reloadInNvim asks a running Neovim to reload rewritten buffers and records
// the outcome in the summary. Failures never fail the run.
func (a *App) reloadInNvim(summary *model.Summary) {
	addr := nvim.Address()
	if addr == "" {
		summary.ReloadWarning = "--reload-nvim: no Neovim address in $NVIM_LISTEN_ADDRESS or $NVIM; skipping."
		return
	}
	manager, err := nvim.Dial(addr)
	if err != nil {
		summary.ReloadWarning = fmt.Sprintf("--reload-nvim: %v", err)
		return
	}
	defer manager.Close()

	summary.Reloaded, summary.ReloadFailed = manager.ReloadFiles(summary.Modified, nil)
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	wd, err := os.Getwd()
	if err != nil {
		// Cannot get CWD, so we can't make paths relative.
		return
	}
	summary.Modified = fs.RelativeTo(wd, summary.Modified)
	if len(summary.Reloaded) > 0 {
		summary.Reloaded = fs.RelativeTo(wd, summary.Reloaded)
	}
	if len(summary.ReloadFailed) > 0 {
		summary.ReloadFailed = fs.RelativeTo(wd, summary.ReloadFailed)
	}
}

func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = &DetailedError{
			Err:   fmt.Errorf("internal panic: %v", r),
			Stack: debug.Stack(),
		}
	}
}

func (a *App) header(format string, args ...interface{}) {
	if !a.cfg.Quiet {
		ui.Header(format, args...)
	}
}

func (a *App) info(format string, args ...interface{}) {
	if !a.cfg.Quiet {
		ui.Info(format, args...)
	}
}

func firstNonEmpty(candidates ...[]string) []string {
	for _, c := range candidates {
		if len(c) > 0 {
			return c
		}
	}
	return nil
}
