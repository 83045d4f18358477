package normalize

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sokinpui/srctidy/internal/fs"
)

// tabReplacement is what every tab character expands to.
const tabReplacement = "    "

// Options controls how a single file is normalized.
type Options struct {
	// Encoding is a WHATWG encoding label such as "latin1" or "windows-1252".
	// Empty or "utf-8" keeps the bytes as they are.
	Encoding string
	// DryRun reports whether a file would change without writing it.
	DryRun bool
}

// Text returns the normalized form of content.
//
// Line endings are recognized universally (\n, \r\n and lone \r). Trailing
// lines that are blank after stripping whitespace are dropped, tabs expand to
// four spaces, trailing whitespace is stripped from every line and every line
// is terminated by a single \n. Content made only of blank lines becomes empty.
func Text(content string) string {
	lines := strings.Split(TranslateNewlines(content), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, line := range lines {
		line = strings.ReplaceAll(line, "\t", tabReplacement)
		b.WriteString(strings.TrimRightFunc(line, unicode.IsSpace))
		b.WriteByte('\n')
	}
	return b.String()
}

// TranslateNewlines converts \r\n and lone \r line endings to \n.
func TranslateNewlines(content string) string {
	if !strings.ContainsRune(content, '\r') {
		return content
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// File normalizes the file at path in place. It reports whether the content
// differed from its normalized form; the file is only written when it did
// and opts.DryRun is false.
func File(path string, opts Options) (bool, error) {
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return false, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	decoded, err := decode(raw, enc)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s as %s: %w", path, opts.Encoding, err)
	}

	original := TranslateNewlines(decoded)
	normalized := Text(original)
	if normalized == original {
		return false, nil
	}
	if opts.DryRun {
		return true, nil
	}

	out, err := encode(normalized, enc)
	if err != nil {
		return false, fmt.Errorf("failed to encode %s as %s: %w", path, opts.Encoding, err)
	}
	if bytes.Equal(out, raw) {
		return false, nil
	}
	if err := fs.WriteFileKeepMode(path, out); err != nil {
		return false, err
	}
	return true, nil
}

// LookupEncoding resolves an encoding label. A nil encoding means the content
// is used byte for byte.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

func decode(raw []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return string(raw), nil
	}
	b, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encode(s string, enc encoding.Encoding) ([]byte, error) {
	if enc == nil {
		return []byte(s), nil
	}
	return enc.NewEncoder().Bytes([]byte(s))
}
