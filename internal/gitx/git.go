package gitx

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when the path is not inside a git work tree
var ErrNotRepository = errors.New("not a git repository")

// Status describes how far a file has made it into git.
type Status string

const (
	// Committed files are present in the HEAD tree, so their content is
	// part of the history and any secret in them must be rotated.
	Committed Status = "committed"
	// Staged files are in the index but not yet in HEAD.
	Staged Status = "staged"
	// Untracked files are unknown to git. They never appear in the map
	// returned by TrackedStatus.
	Untracked Status = "untracked"
)

// TrackedStatus returns the status of every tracked file in the
// repository containing path, keyed by absolute file path.
func TrackedStatus(path string) (map[string]Status, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have nothing on disk to annotate.
		if errors.Is(err, git.ErrIsBareRepository) {
			return nil, ErrNotRepository
		}
		return nil, err
	}
	top := wt.Filesystem.Root()

	status := make(map[string]Status)

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	for _, e := range idx.Entries {
		status[filepath.Join(top, filepath.FromSlash(e.Name))] = Staged
	}

	committed, err := headFiles(repo)
	if err != nil {
		return nil, err
	}
	for _, name := range committed {
		status[filepath.Join(top, filepath.FromSlash(name))] = Committed
	}

	return status, nil
}

// headFiles lists the files in the HEAD tree. A repository without
// commits yields no files.
func headFiles(repo *git.Repository) ([]string, error) {
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}

	return getAllFiles(commit)
}

// Helper function to get all files in a commit
func getAllFiles(commit *object.Commit) ([]string, error) {
	var files []string
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	})

	return files, err
}
