package scanner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ejagojo/shipsafe/pkg/rules"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LineScanner applies the pattern table to file content line by line.
// It is safe for concurrent use.
type LineScanner struct {
	rules []rules.Rule
	pre   *prefilter
}

// NewLineScanner creates a line scanner over the given rule table.
func NewLineScanner(table []rules.Rule) *LineScanner {
	return &LineScanner{
		rules: table,
		pre:   newPrefilter(table),
	}
}

// Rules returns the rule table in evaluation order.
func (s *LineScanner) Rules() []rules.Rule {
	return s.rules
}

// ScanFile scans a file for secrets. A read failure is reported through
// FileResult.Err and yields no findings.
func (s *LineScanner) ScanFile(path string) FileResult {
	file, err := os.Open(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	defer file.Close()

	findings, err := s.ScanReader(file)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return FileResult{Path: path, Findings: findings}
}

// ScanReader scans content from an io.Reader. Content is decoded as
// UTF-8 (or UTF-16 when a BOM says so); invalid bytes become U+FFFD.
func (s *LineScanner) ScanReader(r io.Reader) ([]Finding, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	raw, err := io.ReadAll(decoded)
	if err != nil {
		return nil, err
	}
	return s.ScanString(string(raw)), nil
}

// ScanString scans already decoded text.
func (s *LineScanner) ScanString(content string) []Finding {
	active := s.pre.candidates(content)

	var findings []Finding
	for i, line := range strings.Split(content, "\n") {
		for j := range s.rules {
			if !active[j] {
				continue
			}
			rule := &s.rules[j]
			for _, m := range rule.Pattern.FindAllString(line, -1) {
				findings = append(findings, Finding{
					Rule:      rule.Name,
					Line:      i + 1,
					Masked:    Mask(m),
					Rationale: rule.Rationale,
					Digest:    Digest(m),
				})
			}
		}
	}
	return findings
}
