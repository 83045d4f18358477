package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/sokinpui/srctidy/internal/records"
)

// Format selects how result records are printed.
type Format string

const (
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var formats = []Format{FormatJSON, FormatTable, FormatMarkdown, FormatHTML}

// Formats lists the supported format names.
func Formats() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", name, strings.Join(Formats(), ", "))
}

// Render prints recs in the given format. An empty result renders as an
// empty JSON array for json and as an empty string for every other format.
func Render(format Format, recs []records.Record) (string, error) {
	if format == FormatJSON {
		return JSON(recs)
	}
	if len(recs) == 0 {
		return "", nil
	}
	switch format {
	case FormatTable:
		return Table(recs), nil
	case FormatMarkdown:
		return Markdown(recs), nil
	case FormatHTML:
		return HTML(recs)
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

// JSON renders a JSON array holding one object per line.
func JSON(recs []records.Record) (string, error) {
	if len(recs) == 0 {
		return "[]\n", nil
	}
	var b strings.Builder
	b.WriteString("[\n")
	for i, rec := range recs {
		line, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("failed to encode row %d: %w", i+1, err)
		}
		b.WriteString("  ")
		b.Write(line)
		if i < len(recs)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("]\n")
	return b.String(), nil
}

// Table renders a bordered terminal table.
func Table(recs []records.Record) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(recs[0].Columns()...)
	for _, rec := range recs {
		t.Row(cells(rec, func(s string) string { return s })...)
	}
	return t.Render() + "\n"
}

// Markdown renders a GitHub-flavored markdown table.
func Markdown(recs []records.Record) string {
	cols := recs[0].Columns()
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	header := make([]string, len(cols))
	sep := make([]string, len(cols))
	for i, c := range cols {
		header[i] = escapeMarkdown(c)
		sep[i] = "---"
	}
	writeRow(header)
	writeRow(sep)
	for _, rec := range recs {
		writeRow(cells(rec, escapeMarkdown))
	}
	return b.String()
}

// HTML renders a table through goldmark's table extension. The table is
// built as a syntax tree so that cell values are printed as text and never
// interpreted as markdown or raw HTML.
func HTML(recs []records.Record) (string, error) {
	cols := recs[0].Columns()
	aligns := make([]east.Alignment, len(cols))
	for i := range aligns {
		aligns[i] = east.AlignNone
	}

	tbl := east.NewTable()
	tbl.Alignments = aligns
	tbl.AppendChild(tbl, east.NewTableHeader(tableRow(aligns, cols)))
	for _, rec := range recs {
		tbl.AppendChild(tbl, tableRow(aligns, cells(rec, func(s string) string { return s })))
	}
	doc := ast.NewDocument()
	doc.AppendChild(doc, tbl)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, nil, doc); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}
	return buf.String(), nil
}

func tableRow(aligns []east.Alignment, values []string) *east.TableRow {
	row := east.NewTableRow(aligns)
	for _, v := range values {
		cell := east.NewTableCell()
		text := ast.NewString([]byte(v))
		// Raw strings are HTML-escaped but skip backslash and entity decoding.
		text.SetRaw(true)
		cell.AppendChild(cell, text)
		row.AppendChild(row, cell)
	}
	return row
}

func cells(rec records.Record, esc func(string) string) []string {
	out := make([]string, len(rec))
	for i, f := range rec {
		out[i] = esc(f.Value.String())
	}
	return out
}

// markdownEscaper backslash-escapes the punctuation that carries inline
// meaning inside a GFM table cell. Line breaks would end the row.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"!", `\!`,
	"|", `\|`,
	"~", `\~`,
	"&", `\&`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
