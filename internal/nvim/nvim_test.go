package nvim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress(t *testing.T) {
	t.Setenv("NVIM_LISTEN_ADDRESS", "")
	t.Setenv("NVIM", "")
	assert.Empty(t, Address())

	t.Setenv("NVIM", "/tmp/nvim.sock")
	assert.Equal(t, "/tmp/nvim.sock", Address())

	t.Setenv("NVIM_LISTEN_ADDRESS", "/run/nvim/listen.sock")
	assert.Equal(t, "/run/nvim/listen.sock", Address())
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(filepath.Join(t.TempDir(), "absent.sock"))
	assert.Error(t, err)
}

func TestProcessSequentially(t *testing.T) {
	var seen []int
	ok, failed := processSequentially([]string{"a", "b", "c"}, func(s string) (string, bool) {
		return s, s != "b"
	}, func(n int) { seen = append(seen, n) })

	assert.Equal(t, []string{"a", "c"}, ok)
	assert.Equal(t, []string{"b"}, failed)
	assert.Equal(t, []int{1, 2, 3}, seen)
}
