package nvim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neovim/go-client/nvim"
)

// reloadBufferLua re-reads a buffer from disk without changing the current
// window.
const reloadBufferLua = `
local buf = ...
vim.api.nvim_buf_call(buf, function() vim.cmd("silent edit!") end)
`

// Manager handles the connection and interaction with a Neovim instance.
type Manager struct {
	nvim *nvim.Nvim
}

// Address returns the listen address of the surrounding Neovim, if any.
// $NVIM is set for processes started from a Neovim terminal; the older
// $NVIM_LISTEN_ADDRESS is honored first.
func Address() string {
	if addr := os.Getenv("NVIM_LISTEN_ADDRESS"); addr != "" {
		return addr
	}
	return os.Getenv("NVIM")
}

// Dial connects to a running Neovim instance. Unlike an editing session,
// reloading buffers never starts a headless instance: without a running
// editor there is nothing to reload.
func Dial(addr string) (*Manager, error) {
	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nvim at %s: %w", addr, err)
	}
	return &Manager{nvim: v}, nil
}

// Close disconnects from Neovim.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
}

// processSequentially is a generic helper function to run a set of jobs sequentially.
func processSequentially[T any](
	items []T,
	processFn func(item T) (path string, success bool),
	progressCb func(int),
) (succeeded, failed []string) {
	if len(items) == 0 {
		return nil, nil
	}

	for i, item := range items {
		path, success := processFn(item)
		if success {
			succeeded = append(succeeded, path)
		} else {
			failed = append(failed, path)
		}
		if progressCb != nil {
			progressCb(i + 1)
		}
	}

	return succeeded, failed
}

// ReloadFiles makes Neovim re-read every listed file that is open in a
// buffer. Files without a buffer are skipped and reported as neither
// reloaded nor failed.
func (m *Manager) ReloadFiles(paths []string, progressCb func(int)) (reloaded, failed []string) {
	var open []string
	for _, p := range paths {
		if m.bufferNumber(p) > 0 {
			open = append(open, p)
		}
	}

	processFn := func(path string) (string, bool) {
		return path, m.reloadBuffer(path)
	}
	return processSequentially(open, processFn, progressCb)
}

// bufferNumber returns the buffer holding path, or -1.
func (m *Manager) bufferNumber(path string) int {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return -1
	}
	var bufnr int
	if err := m.nvim.Call("bufnr", &bufnr, absPath); err != nil {
		return -1
	}
	return bufnr
}

func (m *Manager) reloadBuffer(path string) bool {
	bufnr := m.bufferNumber(path)
	if bufnr <= 0 {
		return false
	}
	// A buffer with unsaved edits is left alone.
	var modified int
	if err := m.nvim.Call("getbufvar", &modified, bufnr, "&modified"); err != nil || modified != 0 {
		return false
	}
	return m.nvim.ExecLua(reloadBufferLua, nil, bufnr) == nil
}
