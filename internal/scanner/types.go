package scanner

// Finding is one rule match on one line. Masked never holds the full
// matched text. Digest is a SHA-256 of the match, kept out of reports.
type Finding struct {
	Rule      string `json:"rule"`
	Line      int    `json:"line"`
	Masked    string `json:"masked"`
	Rationale string `json:"rationale"`
	Digest    string `json:"-"`
}

// FileResult is the outcome of scanning a single file. Err is set when
// the file could not be read; Findings is then empty.
type FileResult struct {
	Path     string
	Findings []Finding
	Err      error
}

// Results aggregates a tree scan. Files only holds paths with at least
// one finding.
type Results struct {
	Root       string
	Files      map[string][]Finding
	Unreadable []FileResult
	Scanned    int
	Skipped    int
}

// NewResults returns an empty result set for root.
func NewResults(root string) *Results {
	return &Results{
		Root:  root,
		Files: make(map[string][]Finding),
	}
}

// Total is the number of findings across all files.
func (r *Results) Total() int {
	n := 0
	for _, f := range r.Files {
		n += len(f)
	}
	return n
}

// Empty reports whether no file produced a finding.
func (r *Results) Empty() bool {
	return len(r.Files) == 0
}
