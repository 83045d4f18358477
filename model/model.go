package model

// Summary holds the results of a normalize run for display.
type Summary struct {
	Root     string
	Visited  int
	Modified []string
	DryRun   bool
	Message  string

	// Reloaded and ReloadFailed are set when rewritten files were handed to
	// Neovim. ReloadWarning says why no reload was attempted.
	Reloaded      []string
	ReloadFailed  []string
	ReloadWarning string
}
