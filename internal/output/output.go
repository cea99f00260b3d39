package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ejagojo/shipsafe/internal/gitx"
	"github.com/ejagojo/shipsafe/internal/scanner"
)

// Format defines the supported output formats
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

// Formats lists every supported format in the order shown in help text.
var Formats = []Format{FormatText, FormatTable, FormatJSON, FormatSARIF}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Machine reports whether the format is meant for tools rather than people.
func (f Format) Machine() bool {
	return f == FormatJSON || f == FormatSARIF
}

// Options control rendering. They never change the exit code.
type Options struct {
	Format  Format
	NoColor bool
	// Suppressed is the number of findings hidden by the baseline.
	Suppressed int
	// GitStatus annotates files when non-nil. Paths missing from the map
	// are reported as untracked.
	GitStatus map[string]gitx.Status
	// Version is embedded in machine readable documents.
	Version string
}

// Report renders results to w and returns the process exit code: 0 when
// there are no findings, 1 otherwise.
func Report(w io.Writer, results *scanner.Results, opts Options) (int, error) {
	code := 0
	if !results.Empty() {
		code = 1
	}

	var err error
	switch opts.Format {
	case FormatText, "":
		err = writeText(w, results, opts)
	case FormatTable:
		err = writeTable(w, results, opts)
	case FormatJSON:
		err = writeJSON(w, results, opts)
	case FormatSARIF:
		err = writeSARIF(w, results, opts)
	default:
		return code, fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	return code, err
}

// SortedPaths returns the files with findings ordered by path
// components, so "a/b" sorts before "a.txt".
func SortedPaths(results *scanner.Results) []string {
	paths := make([]string, 0, len(results.Files))
	for p := range results.Files {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return comparePaths(paths[i], paths[j]) < 0
	})
	return paths
}

func comparePaths(a, b string) int {
	as := strings.Split(filepath.ToSlash(a), "/")
	bs := strings.Split(filepath.ToSlash(b), "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

// RelativePath shows path relative to root, falling back to the
// absolute path when it is not below root.
func RelativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func gitStatus(opts Options, path string) (gitx.Status, bool) {
	if opts.GitStatus == nil {
		return "", false
	}
	if s, ok := opts.GitStatus[path]; ok {
		return s, true
	}
	return gitx.Untracked, true
}
