package output

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/ejagojo/shipsafe/internal/scanner"
)

type jsonReport struct {
	Tool       string           `json:"tool"`
	Version    string           `json:"version,omitempty"`
	Root       string           `json:"root"`
	Total      int              `json:"total"`
	Suppressed int              `json:"suppressed"`
	Scanned    int              `json:"scanned"`
	Skipped    int              `json:"skipped"`
	Files      []jsonFile       `json:"files"`
	Unreadable []jsonUnreadable `json:"unreadable"`
}

type jsonFile struct {
	Path     string            `json:"path"`
	Git      string            `json:"git,omitempty"`
	Findings []scanner.Finding `json:"findings"`
}

type jsonUnreadable struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// writeJSON writes findings in JSON format
func writeJSON(w io.Writer, results *scanner.Results, opts Options) error {
	report := jsonReport{
		Tool:       "shipsafe",
		Version:    opts.Version,
		Root:       results.Root,
		Total:      results.Total(),
		Suppressed: opts.Suppressed,
		Scanned:    results.Scanned,
		Skipped:    results.Skipped,
		Files:      make([]jsonFile, 0, len(results.Files)),
		Unreadable: make([]jsonUnreadable, 0, len(results.Unreadable)),
	}

	for _, path := range SortedPaths(results) {
		f := jsonFile{
			Path:     filepath.ToSlash(RelativePath(results.Root, path)),
			Findings: results.Files[path],
		}
		if s, ok := gitStatus(opts, path); ok {
			f.Git = string(s)
		}
		report.Files = append(report.Files, f)
	}

	for _, u := range results.Unreadable {
		report.Unreadable = append(report.Unreadable, jsonUnreadable{
			Path:  filepath.ToSlash(RelativePath(results.Root, u.Path)),
			Error: u.Err.Error(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
