// Package stager prepares an application's source tree in its work folder.
package stager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/balaji-balu/gaedeploy/internal/gitfetcher"
	"github.com/balaji-balu/gaedeploy/pkg/application"
	"github.com/goccy/go-yaml"
	cp "github.com/otiai10/copy"
	"go.uber.org/zap"
)

// Cloner fetches the repository at url into dir.
type Cloner interface {
	Clone(ctx context.Context, url, branch, dir string) error
}

// GitCloner clones with go-git.
type GitCloner struct {
	Token  string
	Depth  int
	Logger *zap.Logger
}

func (c GitCloner) Clone(ctx context.Context, url, branch, dir string) error {
	f := &gitfetcher.GitFetcher{
		RepoURL:  url,
		Branch:   branch,
		LocalDir: dir,
		Token:    c.Token,
		Depth:    c.Depth,
		Logger:   c.Logger,
	}
	return f.Clone(ctx)
}

type Stager struct {
	cloner Cloner
	logger *zap.Logger
}

func New(cloner Cloner, logger *zap.Logger) *Stager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cloner == nil {
		cloner = GitCloner{Depth: 1, Logger: logger}
	}
	return &Stager{cloner: cloner, logger: logger}
}

// Stage fills the application's work folder from its source, applies file
// replacements and returns the deploy descriptor path.
func (s *Stager) Stage(ctx context.Context, app *application.Application) (string, error) {
	workFolder := app.WorkFolder()

	if err := os.RemoveAll(workFolder); err != nil {
		return "", fmt.Errorf("remove stale work folder %s: %w", workFolder, err)
	}
	if err := os.MkdirAll(filepath.Dir(workFolder), 0o755); err != nil {
		return "", fmt.Errorf("create temp folder: %w", err)
	}

	switch src := app.Source.(type) {
	case application.LocalSource:
		s.logger.Info("copying local source", zap.String("from", src.Path), zap.String("to", workFolder))
		if err := copyLocal(src.Path, workFolder); err != nil {
			return "", err
		}
	case application.RemoteSource:
		if err := s.cloner.Clone(ctx, src.URL, src.Branch, workFolder); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("application %s has no source", app.Name)
	}

	if err := s.replaceFiles(app); err != nil {
		return "", err
	}

	descriptor := app.DescriptorPath()
	if err := s.checkDescriptor(descriptor); err != nil {
		return "", err
	}
	return descriptor, nil
}

func (s *Stager) replaceFiles(app *application.Application) error {
	workFolder := app.WorkFolder()
	for _, rf := range app.ReplaceFiles {
		s.logger.Info("replace file", zap.String("src", rf.Src), zap.String("dist", rf.Dist))

		if !filepath.IsLocal(rf.Dist) {
			return fmt.Errorf("replace dist_file %q must stay inside the work folder", rf.Dist)
		}
		src := rf.Src
		if !filepath.IsAbs(src) {
			src = filepath.Join(workFolder, src)
		}
		dist := filepath.Join(workFolder, rf.Dist)
		if filepath.Clean(src) == dist {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dist), 0o755); err != nil {
			return fmt.Errorf("replace %s: %w", rf.Dist, err)
		}
		if err := cp.Copy(src, dist, copyOptions); err != nil {
			return fmt.Errorf("replace %s with %s: %w", rf.Dist, rf.Src, err)
		}
	}
	return nil
}

// Symlinks are followed so links pointing outside the source tree still
// deploy their content.
var copyOptions = cp.Options{
	OnSymlink: func(string) cp.SymlinkAction { return cp.Deep },
}

func copyLocal(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("local source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("local source %s is not a directory", src)
	}
	if err := cp.Copy(src, dst, copyOptions); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// checkDescriptor rejects a staged descriptor that is not valid YAML. A missing
// descriptor is left for the deploy tool to report.
func (s *Stager) checkDescriptor(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.logger.Warn("deploy descriptor not found in staged source", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read deploy descriptor: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("deploy descriptor %s is not valid yaml: %w", path, err)
	}
	return nil
}
