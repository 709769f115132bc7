package gitutil

import (
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func TestInitAndOpen(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", r.Dir(), dir)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(t.TempDir()); !errors.Is(err, ErrRepo) {
		t.Errorf("err = %v, want ErrRepo", err)
	}
}

func TestCheckoutOrphanAndCommit(t *testing.T) {
	r := newTestRepo(t)

	if err := r.CheckoutOrphan("gh-pages"); err != nil {
		t.Fatalf("CheckoutOrphan: %v", err)
	}
	if err := r.WriteFile("index.md", []byte("# Wiki\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := r.Commit("converted wiki pages"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if !r.HasBranch("gh-pages") {
		t.Error("gh-pages branch missing after commit")
	}

	head, err := r.repo.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("CommitObject: %v", err)
	}
	if commit.Author.Name != CommitAuthor.Name {
		t.Errorf("author = %q, want %q", commit.Author.Name, CommitAuthor.Name)
	}
	if len(commit.ParentHashes) != 0 {
		t.Errorf("orphan commit has %d parents", len(commit.ParentHashes))
	}
}

func TestCheckoutOrphanExisting(t *testing.T) {
	r := newTestRepo(t)

	if err := r.CheckoutOrphan("wiki"); err != nil {
		t.Fatalf("CheckoutOrphan: %v", err)
	}
	if err := r.WriteFile("page.md", []byte("text\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := r.Commit("converted wiki pages"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.CheckoutOrphan("wiki"); !errors.Is(err, ErrBranch) {
		t.Errorf("err = %v, want ErrBranch", err)
	}
}

func TestWriteFileNested(t *testing.T) {
	r := newTestRepo(t)
	if err := r.CheckoutOrphan("wiki"); err != nil {
		t.Fatalf("CheckoutOrphan: %v", err)
	}
	if err := r.WriteFile("SomePage/diagram.png", []byte{0x89, 0x50}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	status, err := r.wt.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st := status.File("SomePage/diagram.png"); st.Staging != 'A' {
		t.Errorf("staging status = %q, want added", st.Staging)
	}
}

func TestWriteSymlink(t *testing.T) {
	r := newTestRepo(t)
	if err := r.CheckoutOrphan("wiki"); err != nil {
		t.Fatalf("CheckoutOrphan: %v", err)
	}
	if err := r.WriteFile("WikiStart.md", []byte("# Start\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := r.WriteSymlink("index.md", "WikiStart.md"); err != nil {
		t.Fatalf("WriteSymlink: %v", err)
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	var found bool
	for _, e := range idx.Entries {
		if e.Name == "index.md" {
			found = true
			if e.Mode != filemode.Symlink {
				t.Errorf("index.md mode = %v, want symlink", e.Mode)
			}
		}
	}
	if !found {
		t.Error("index.md not staged")
	}
}

func TestEnsureRemoteReplaces(t *testing.T) {
	r := newTestRepo(t)

	if err := r.EnsureRemote("origin", "https://example.org/old.git"); err != nil {
		t.Fatalf("EnsureRemote: %v", err)
	}
	if err := r.EnsureRemote("origin", "https://example.org/new.git"); err != nil {
		t.Fatalf("EnsureRemote (replace): %v", err)
	}

	remote, err := r.repo.Remote("origin")
	if err != nil {
		t.Fatalf("Remote: %v", err)
	}
	if urls := remote.Config().URLs; len(urls) != 1 || urls[0] != "https://example.org/new.git" {
		t.Errorf("remote urls = %v", urls)
	}
}

func TestPushToLocalRemote(t *testing.T) {
	remoteDir := t.TempDir()
	if _, err := Init(remoteDir); err != nil {
		t.Fatalf("Init remote: %v", err)
	}

	r := newTestRepo(t)
	if err := r.CheckoutOrphan("wiki"); err != nil {
		t.Fatalf("CheckoutOrphan: %v", err)
	}
	if err := r.WriteFile("page.md", []byte("text\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := r.Commit("converted wiki pages"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := r.EnsureRemote("origin", remoteDir); err != nil {
		t.Fatalf("EnsureRemote: %v", err)
	}

	if err := r.Push("origin", "wiki", ""); err != nil {
		t.Fatalf("Push: %v", err)
	}
	// Pushing again with nothing new is not an error.
	if err := r.Push("origin", "wiki", ""); err != nil {
		t.Fatalf("Push (up to date): %v", err)
	}

	remote, err := Open(remoteDir)
	if err != nil {
		t.Fatalf("Open remote: %v", err)
	}
	if !remote.HasBranch("wiki") {
		t.Error("remote missing wiki branch after push")
	}
}
