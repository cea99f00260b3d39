package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/ejagojo/shipsafe/internal/scanner"
	"github.com/ejagojo/shipsafe/pkg/rules"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// writeTable writes findings in a human-readable table format
func writeTable(w io.Writer, results *scanner.Results, opts Options) error {
	ew := &errWriter{w: w}

	if results.Empty() {
		newPalette(opts.NoColor).good.Fprintln(ew, "No secrets detected!")
		writeSuppressed(ew, newPalette(opts.NoColor), opts.Suppressed)
		return ew.err
	}

	t := newTable(ew, opts.NoColor)
	header := table.Row{"File", "Line", "Rule", "Found"}
	if opts.GitStatus != nil {
		header = append(header, "Git")
	}
	t.AppendHeader(header)

	for _, path := range SortedPaths(results) {
		rel := RelativePath(results.Root, path)
		for _, f := range results.Files[path] {
			row := table.Row{rel, f.Line, f.Rule, f.Masked}
			if s, ok := gitStatus(opts, path); ok {
				row = append(row, string(s))
			}
			t.AppendRow(row)
		}
	}

	footer := fmt.Sprintf("%d potential secrets", results.Total())
	if opts.Suppressed > 0 {
		footer += fmt.Sprintf(", %d suppressed", opts.Suppressed)
	}
	t.AppendFooter(table.Row{footer})

	t.Render()
	return ew.err
}

// ListRules prints the active pattern table.
func ListRules(w io.Writer, active []rules.Rule, noColor bool) error {
	ew := &errWriter{w: w}

	t := newTable(ew, noColor)
	t.AppendHeader(table.Row{"#", "Rule", "Keywords", "Why it matters"})
	for i, r := range active {
		t.AppendRow(table.Row{i + 1, r.Name, strings.Join(r.Keywords, ", "), r.Rationale})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 60},
	})
	t.Render()
	return ew.err
}

func newTable(w io.Writer, noColor bool) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	if !noColor {
		t.Style().Color.Header = text.Colors{text.Bold}
	}
	return t
}
