// Package gitutil wraps the git plumbing the wiki migration needs: an
// orphan branch holding the converted pages, committed and pushed to the
// project repository.
package gitutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Sentinel errors for repository operations.
var (
	ErrRepo   = errors.New("git repository operation failed")
	ErrBranch = errors.New("branch already exists")
)

// CommitAuthor identifies the migration in the git history.
var CommitAuthor = object.Signature{
	Name:  "trac migration",
	Email: "tracmigrate@localhost",
}

// Repo is a working copy with one checked-out branch.
type Repo struct {
	repo *git.Repository
	wt   *git.Worktree
	dir  string
}

// Init creates an empty repository with a working tree in dir.
func Init(dir string) (*Repo, error) {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("%w: init %s: %v", ErrRepo, dir, err)
	}
	return wrap(repo, dir)
}

// Open opens an existing repository in dir.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrRepo, dir, err)
	}
	return wrap(repo, dir)
}

func wrap(repo *git.Repository, dir string) (*Repo, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: worktree: %v", ErrRepo, err)
	}
	return &Repo{repo: repo, wt: wt, dir: dir}, nil
}

// Dir returns the working tree root.
func (r *Repo) Dir() string {
	return r.dir
}

// HasBranch reports whether the local branch exists.
func (r *Repo) HasBranch(name string) bool {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	return err == nil
}

// CheckoutOrphan switches to a new branch with no parent commit and an
// empty index, leaving the working tree untouched. It fails with ErrBranch
// when the branch already exists, so an earlier migration run is never
// overwritten.
func (r *Repo) CheckoutOrphan(name string) error {
	if r.HasBranch(name) {
		return fmt.Errorf("%w: %s", ErrBranch, name)
	}

	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(name))
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("%w: orphan %s: %v", ErrRepo, name, err)
	}

	// Drop staged entries inherited from the previous branch. The first
	// commit on the orphan branch must contain only what gets added next.
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("%w: orphan %s: %v", ErrRepo, name, err)
	}
	idx.Entries = nil
	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return fmt.Errorf("%w: orphan %s: %v", ErrRepo, name, err)
	}
	return nil
}

// WriteFile writes content below the working tree and stages it.
func (r *Repo) WriteFile(name string, content []byte) error {
	path := filepath.Join(r.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrRepo, name, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrRepo, name, err)
	}
	if _, err := r.wt.Add(name); err != nil {
		return fmt.Errorf("%w: add %s: %v", ErrRepo, name, err)
	}
	return nil
}

// WriteSymlink stages a symlink pointing at target. Hosting frontends
// follow it, so the wiki start page can double as the branch index.
func (r *Repo) WriteSymlink(name, target string) error {
	path := filepath.Join(r.dir, name)
	_ = os.Remove(path)
	if err := os.Symlink(target, path); err != nil {
		return fmt.Errorf("%w: symlink %s: %v", ErrRepo, name, err)
	}
	if _, err := r.wt.Add(name); err != nil {
		return fmt.Errorf("%w: add %s: %v", ErrRepo, name, err)
	}

	// Some filesystems materialize the link as a regular file; force the
	// symlink mode in the index so the committed tree is right anyway.
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("%w: symlink %s: %v", ErrRepo, name, err)
	}
	for i := range idx.Entries {
		if idx.Entries[i].Name == name {
			idx.Entries[i].Mode = filemode.Symlink
		}
	}
	if err := r.repo.Storer.SetIndex(idx); err != nil {
		return fmt.Errorf("%w: symlink %s: %v", ErrRepo, name, err)
	}
	return nil
}

// Commit records the staged changes.
func (r *Repo) Commit(message string) error {
	author := CommitAuthor
	author.When = time.Now()
	_, err := r.wt.Commit(message, &git.CommitOptions{Author: &author})
	if err != nil {
		return fmt.Errorf("%w: commit: %v", ErrRepo, err)
	}
	return nil
}

// EnsureRemote creates or updates the named remote to point at url.
func (r *Repo) EnsureRemote(name, url string) error {
	cfg := &config.RemoteConfig{Name: name, URLs: []string{url}}
	if _, err := r.repo.CreateRemote(cfg); err != nil {
		if !errors.Is(err, git.ErrRemoteExists) {
			return fmt.Errorf("%w: remote %s: %v", ErrRepo, name, err)
		}
		if err := r.repo.DeleteRemote(name); err != nil {
			return fmt.Errorf("%w: remote %s: %v", ErrRepo, name, err)
		}
		if _, err := r.repo.CreateRemote(cfg); err != nil {
			return fmt.Errorf("%w: remote %s: %v", ErrRepo, name, err)
		}
	}
	return nil
}

// Push pushes one local branch to the same branch on the remote. The token
// authenticates as the "git" user the way hosted HTTPS remotes expect.
func (r *Repo) Push(remote, branch, token string) error {
	refspec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	opts := &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{refspec},
	}
	if token != "" {
		opts.Auth = &http.BasicAuth{Username: "git", Password: token}
	}
	if err := r.repo.Push(opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: push %s to %s: %v", ErrRepo, branch, remote, err)
	}
	return nil
}
