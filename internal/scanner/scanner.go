package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrRootNotExist is returned when the scan root is missing.
	ErrRootNotExist = errors.New("path does not exist")
	// ErrRootNotDir is returned when the scan root is not a directory.
	ErrRootNotDir = errors.New("path is not a directory")
)

// Options tune a Scanner without affecting its results.
type Options struct {
	Logger logrus.FieldLogger
	// OnFile is called once per eligible file after it has been scanned.
	// Calls are serialised.
	OnFile func(FileResult)
}

// Scanner walks a directory tree and scans every eligible file.
type Scanner struct {
	filter  *Filter
	lines   *LineScanner
	threads int
	log     logrus.FieldLogger
	onFile  func(FileResult)
}

// New creates a Scanner from resolved settings.
func New(s *Settings, opts Options) *Scanner {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	threads := s.Concurrency
	if threads <= 0 {
		threads = DefaultConcurrency
	}
	return &Scanner{
		filter:  NewFilter(s),
		lines:   NewLineScanner(s.Rules),
		threads: threads,
		log:     log,
		onFile:  opts.OnFile,
	}
}

// Filter returns the file filter in use.
func (s *Scanner) Filter() *Filter { return s.filter }

// Lines returns the line scanner in use.
func (s *Scanner) Lines() *LineScanner { return s.lines }

// ResolveRoot makes path absolute, resolves symlinks and checks that it
// names an existing directory.
func ResolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRootNotExist, path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	if err != nil {
		return abs, fmt.Errorf("%w: %s", ErrRootNotExist, abs)
	}
	if !info.IsDir() {
		return abs, fmt.Errorf("%w: %s", ErrRootNotDir, abs)
	}
	return abs, nil
}

// Run scans the tree rooted at root. Per-file failures never abort the
// walk; only an invalid root or a cancelled context return an error.
func (s *Scanner) Run(ctx context.Context, root string) (*Results, error) {
	root, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	results := NewResults(root)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unlistable directory or vanished entry.
			s.log.WithField("path", path).WithError(err).Debug("skipping unreadable entry")
			return nil
		}

		if gctx.Err() != nil {
			return gctx.Err()
		}

		if d.IsDir() {
			if path != root && s.filter.SkipDir(d.Name()) {
				s.log.WithField("path", path).Debug("skipping directory")
				return filepath.SkipDir
			}
			return nil
		}

		g.Go(func() error {
			s.scanOne(path, results, &mu)
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results.Unreadable, func(i, j int) bool {
		return results.Unreadable[i].Path < results.Unreadable[j].Path
	})
	return results, nil
}

func (s *Scanner) scanOne(path string, results *Results, mu *sync.Mutex) {
	if s.filter.ShouldSkip(path) {
		s.log.WithField("path", path).Debug("skipping file")
		mu.Lock()
		results.Skipped++
		mu.Unlock()
		return
	}

	s.log.WithField("path", path).Debug("scanning file")
	res := s.lines.ScanFile(path)
	if res.Err != nil {
		s.log.WithField("path", path).WithError(res.Err).Debug("file unreadable")
	}

	mu.Lock()
	defer mu.Unlock()
	results.Scanned++
	if res.Err != nil {
		results.Unreadable = append(results.Unreadable, res)
	} else if len(res.Findings) > 0 {
		results.Files[path] = res.Findings
	}
	if s.onFile != nil {
		s.onFile(res)
	}
}
