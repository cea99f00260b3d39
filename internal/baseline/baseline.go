package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ejagojo/shipsafe/internal/scanner"
)

const (
	// FileName is the baseline file looked up in the scan root.
	FileName = ".shipsafe_baseline.json"

	currentVersion = "1.0"
)

// Baseline represents the suppression file
type Baseline struct {
	Version   string    `json:"version"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Findings  []Finding `json:"findings"`

	index map[string]struct{}
}

// Finding represents a suppressed finding. Path is relative to the scan
// root and uses forward slashes.
type Finding struct {
	Rule        string `json:"rule"`
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Fingerprint string `json:"fingerprint"`
}

// New returns an empty baseline.
func New() *Baseline {
	return &Baseline{
		Version:   currentVersion,
		CreatedBy: "shipsafe",
		CreatedAt: time.Now().UTC(),
		index:     make(map[string]struct{}),
	}
}

// Path returns the location of the baseline file for dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load loads the baseline file from the given directory. A missing file
// yields an empty baseline.
func Load(dir string) (*Baseline, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var baseline Baseline
	if err := json.Unmarshal(data, &baseline); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}

	baseline.index = make(map[string]struct{}, len(baseline.Findings))
	for _, f := range baseline.Findings {
		baseline.index[f.Fingerprint] = struct{}{}
	}
	return &baseline, nil
}

// Save saves the baseline file to the given directory
func (b *Baseline) Save(dir string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}
	return nil
}

// Len is the number of suppressed findings.
func (b *Baseline) Len() int {
	return len(b.Findings)
}

// Add adds a finding to the baseline
func (b *Baseline) Add(relPath string, finding scanner.Finding) error {
	fp := Fingerprint(relPath, finding)
	if b.index == nil {
		b.index = make(map[string]struct{})
	}
	if _, ok := b.index[fp]; ok {
		return fmt.Errorf("finding already in baseline")
	}

	b.index[fp] = struct{}{}
	b.Findings = append(b.Findings, Finding{
		Rule:        finding.Rule,
		Path:        filepath.ToSlash(relPath),
		Line:        finding.Line,
		Fingerprint: fp,
	})

	return nil
}

// IsSuppressed checks if a finding is suppressed in the baseline
func (b *Baseline) IsSuppressed(relPath string, finding scanner.Finding) bool {
	_, ok := b.index[Fingerprint(relPath, finding)]
	return ok
}

// Filter returns a copy of results without suppressed findings, and the
// number of findings that were dropped.
func (b *Baseline) Filter(results *scanner.Results) (*scanner.Results, int) {
	filtered := scanner.NewResults(results.Root)
	filtered.Unreadable = results.Unreadable
	filtered.Scanned = results.Scanned
	filtered.Skipped = results.Skipped

	suppressed := 0
	for path, findings := range results.Files {
		rel := relative(results.Root, path)
		var kept []scanner.Finding
		for _, f := range findings {
			if b.IsSuppressed(rel, f) {
				suppressed++
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) > 0 {
			filtered.Files[path] = kept
		}
	}

	return filtered, suppressed
}

// FromResults builds a baseline suppressing every finding in results.
// Entries are ordered by path and line so the file diffs cleanly.
func FromResults(results *scanner.Results) *Baseline {
	b := New()

	paths := make([]string, 0, len(results.Files))
	for path := range results.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		rel := relative(results.Root, path)
		for _, f := range results.Files[path] {
			// Identical matches in one file share a fingerprint.
			_ = b.Add(rel, f)
		}
	}
	return b
}

// Fingerprint identifies a finding by rule, file and the digest of the
// matched text. The raw secret is never written and the fingerprint does
// not change when the line moves.
func Fingerprint(relPath string, finding scanner.Finding) string {
	h := xxhash.New()
	h.WriteString(finding.Rule)
	h.WriteString("\x00")
	h.WriteString(filepath.ToSlash(relPath))
	h.WriteString("\x00")
	h.WriteString(finding.Digest)
	return fmt.Sprintf("%016x", h.Sum64())
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
