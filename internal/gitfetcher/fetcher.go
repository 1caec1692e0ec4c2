package gitfetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

type GitFetcher struct {
	RepoURL  string
	Branch   string // empty clones the remote HEAD
	LocalDir string
	Token    string
	Depth    int // 0 fetches full history
	Logger   *zap.Logger
}

func (g *GitFetcher) auth() transport.AuthMethod {
	if g.Token == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "git", // can be anything but not empty
		Password: g.Token,
	}
}

// Clone performs a fresh shallow clone of the repo into LocalDir.
func (g *GitFetcher) Clone(ctx context.Context) error {
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := os.Stat(filepath.Join(g.LocalDir, ".git")); err == nil {
		return fmt.Errorf("repo already exists at %s", g.LocalDir)
	}

	opts := &git.CloneOptions{
		URL:          g.RepoURL,
		Auth:         g.auth(),
		SingleBranch: true,
		Depth:        g.Depth,
	}
	if g.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.Branch)
	}

	log.Info("cloning repository", zap.String("url", g.RepoURL), zap.String("branch", g.Branch), zap.String("dir", g.LocalDir))
	if _, err := git.PlainCloneContext(ctx, g.LocalDir, false, opts); err != nil {
		return fmt.Errorf("clone %s failed: %w", g.RepoURL, err)
	}
	log.Info("clone complete", zap.String("dir", g.LocalDir))
	return nil
}
