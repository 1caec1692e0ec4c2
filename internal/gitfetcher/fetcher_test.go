package gitfetcher

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one commit containing app.yaml. Cloning
// from a local path runs git-upload-pack, so the test needs a git install.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), []byte("runtime: python39\n"), 0644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("app.yaml")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("release"), head.Hash())))
	return dir
}

func TestClone(t *testing.T) {
	origin := initRepo(t)
	dest := filepath.Join(t.TempDir(), "work")

	f := &GitFetcher{RepoURL: origin, LocalDir: dest}
	require.NoError(t, f.Clone(context.Background()))

	data, err := os.ReadFile(filepath.Join(dest, "app.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "runtime: python39\n", string(data))
}

func TestClone_Branch(t *testing.T) {
	origin := initRepo(t)
	dest := filepath.Join(t.TempDir(), "work")

	f := &GitFetcher{RepoURL: origin, Branch: "release", LocalDir: dest}
	require.NoError(t, f.Clone(context.Background()))

	repo, err := git.PlainOpen(dest)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewBranchReferenceName("release"), head.Name())
}

func TestClone_AlreadyExists(t *testing.T) {
	origin := initRepo(t)

	f := &GitFetcher{RepoURL: origin, LocalDir: origin}
	err := f.Clone(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestClone_BadURL(t *testing.T) {
	f := &GitFetcher{RepoURL: filepath.Join(t.TempDir(), "missing"), LocalDir: filepath.Join(t.TempDir(), "work")}
	err := f.Clone(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clone")
}

func TestAuth(t *testing.T) {
	assert.Nil(t, (&GitFetcher{}).auth())
	assert.NotNil(t, (&GitFetcher{Token: "t"}).auth())
}
