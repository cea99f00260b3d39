package scanner

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// sniffLen covers every magic number filetype knows about.
const sniffLen = 262

// Filter decides which directories are entered and which files are read.
type Filter struct {
	skipDirs map[string]struct{}
	skipExts []string
	maxSize  int64
	sniff    bool
}

// NewFilter builds a filter from resolved settings.
func NewFilter(s *Settings) *Filter {
	return &Filter{
		skipDirs: s.SkipDirs,
		skipExts: s.SkipExtensions,
		maxSize:  s.MaxFileSize,
		sniff:    s.SniffContent,
	}
}

// SkipDir reports whether a directory with the given base name is pruned.
func (f *Filter) SkipDir(name string) bool {
	_, ok := f.skipDirs[name]
	return ok
}

// ShouldSkip reports whether the file at path is ineligible for scanning.
// Only regular files (or symlinks to them) are read; anything that
// cannot be stat'ed is skipped.
func (f *Filter) ShouldSkip(path string) bool {
	if f.hasSkippedExtension(filepath.Base(path)) {
		return true
	}

	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	if !info.Mode().IsRegular() || info.Size() > f.maxSize {
		return true
	}

	if f.sniff && looksBinary(path) {
		return true
	}

	return false
}

// hasSkippedExtension matches compound suffixes like ".min.js". A
// dotfile named exactly like an extension (".lock") has no extension.
func (f *Filter) hasSkippedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range f.skipExts {
		if len(lower) > len(ext) && strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func looksBinary(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	head = head[:n]

	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return false
	}
	return kind.MIME.Value != "application/rtf"
}
