package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ejagojo/shipsafe/internal/gitx"
	"github.com/ejagojo/shipsafe/internal/scanner"
	"github.com/fatih/color"
)

var rule = strings.Repeat("=", 60)

const remediation = `
1. Move secrets to environment variables (.env file)
2. Add .env to your .gitignore
3. If secrets were already committed:
   - Rotate the compromised credentials immediately
   - Purge them from history with 'git filter-repo' or 'BFG Repo-Cleaner'
   - Remember: pushing a delete doesn't remove git history!

4. Set up pre-commit hooks to catch this automatically:
   pip install pre-commit
   # Add shipsafe, gitleaks or detect-secrets to your .pre-commit-config.yaml

`

type palette struct {
	good, bad, heading, warn, faint *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		good:    color.New(color.FgGreen, color.Bold),
		bad:     color.New(color.FgRed, color.Bold),
		heading: color.New(color.Bold),
		warn:    color.New(color.FgYellow),
		faint:   color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.good, p.bad, p.heading, p.warn, p.faint} {
			c.DisableColor()
		}
	}
	return p
}

// errWriter keeps the first write error so the renderer can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func writeText(w io.Writer, results *scanner.Results, opts Options) error {
	ew := &errWriter{w: w}
	p := newPalette(opts.NoColor)

	if results.Empty() {
		fmt.Fprintln(ew)
		fmt.Fprintln(ew, rule)
		p.good.Fprintln(ew, "  No secrets detected!")
		fmt.Fprintln(ew, rule)
		writeSuppressed(ew, p, opts.Suppressed)
		fmt.Fprintln(ew)
		fmt.Fprintln(ew, "Note: This scanner uses pattern matching and may miss some secrets.")
		fmt.Fprintln(ew, "Consider also using: gitleaks, trufflehog, or detect-secrets")
		return ew.err
	}

	fmt.Fprintln(ew)
	fmt.Fprintln(ew, rule)
	p.bad.Fprintf(ew, "  POTENTIAL SECRETS FOUND: %d\n", results.Total())
	fmt.Fprintln(ew, rule)
	writeSuppressed(ew, p, opts.Suppressed)

	for _, path := range SortedPaths(results) {
		rel := RelativePath(results.Root, path)
		fmt.Fprintln(ew)
		p.heading.Fprintln(ew, rel)
		fmt.Fprintln(ew, strings.Repeat("-", utf8.RuneCountInString(rel)))
		if s, ok := gitStatus(opts, path); ok {
			writeGitStatus(ew, p, s)
		}

		for _, f := range results.Files[path] {
			fmt.Fprintf(ew, "  Line %d: [%s]\n", f.Line, f.Rule)
			fmt.Fprintf(ew, "    Found: %s\n", p.warn.Sprint(f.Masked))
			fmt.Fprintf(ew, "    Why it matters: %s\n", f.Rationale)
			fmt.Fprintln(ew)
		}
	}

	fmt.Fprintln(ew, rule)
	p.heading.Fprintln(ew, "  RECOMMENDED ACTIONS:")
	fmt.Fprintln(ew, rule)
	fmt.Fprint(ew, remediation)
	return ew.err
}

func writeSuppressed(w io.Writer, p palette, n int) {
	if n == 0 {
		return
	}
	noun := "findings"
	if n == 1 {
		noun = "finding"
	}
	p.faint.Fprintf(w, "  (%d %s suppressed by baseline)\n", n, noun)
}

func writeGitStatus(w io.Writer, p palette, s gitx.Status) {
	switch s {
	case gitx.Committed:
		p.bad.Fprintln(w, "  Git: committed (already in history, rotate these credentials)")
	case gitx.Staged:
		p.warn.Fprintln(w, "  Git: staged (unstage before committing)")
	default:
		fmt.Fprintf(w, "  Git: %s\n", s)
	}
}
