package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/balaji-balu/gaedeploy/pkg/application"
	"gopkg.in/yaml.v3"
)

const sourceTypeLocal = "local"

// FormatError is returned when the deploy configuration file cannot be read
// or does not describe a usable configuration.
type FormatError struct {
	Path string
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("yaml file(%s) %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("yaml file(%s) %s", e.Path, e.Msg)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Config is the parsed deploy configuration.
type Config struct {
	DeployTool   string
	TempFolder   string
	Applications *application.Registry
}

type fileConfig struct {
	DeployTool string     `yaml:"deployTool"`
	TempFolder string     `yaml:"tempFolder"`
	Apps       []appEntry `yaml:"apps"`
}

type appEntry struct {
	Name          string                    `yaml:"name"`
	ApplicationID string                    `yaml:"applicationId"`
	Version       string                    `yaml:"version"`
	Source        *sourceEntry              `yaml:"source"`
	ReplaceFiles  []application.ReplaceFile `yaml:"replaceFiles"`
	YamlFiles     string                    `yaml:"yamlFiles"`
}

type sourceEntry struct {
	Type     string `yaml:"type"`
	Location string `yaml:"location"`
	Branch   string `yaml:"branch"`
}

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock overrides the clock used to name application work folders.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// LoadConfig reads and validates the deploy configuration at path.
func LoadConfig(path string, opts ...Option) (*Config, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &FormatError{Path: path, Msg: "is not found", Err: err}
		}
		return nil, &FormatError{Path: path, Msg: "cannot be read", Err: err}
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Path: path, Msg: "is not valid yaml", Err: err}
	}

	createdAt := o.now()
	seen := make(map[string]struct{}, len(raw.Apps))
	apps := make([]*application.Application, 0, len(raw.Apps))
	for i, entry := range raw.Apps {
		app, err := entry.toApplication()
		if err != nil {
			return nil, &FormatError{Path: path, Msg: fmt.Sprintf("apps[%d]: %s", i, err)}
		}
		if _, dup := seen[app.Name]; dup {
			return nil, &FormatError{Path: path, Msg: fmt.Sprintf("apps[%d]: duplicate application name %q", i, app.Name)}
		}
		seen[app.Name] = struct{}{}
		apps = append(apps, application.New(app, raw.DeployTool, raw.TempFolder, createdAt))
	}

	return &Config{
		DeployTool:   raw.DeployTool,
		TempFolder:   raw.TempFolder,
		Applications: application.NewRegistry(apps),
	}, nil
}

func (e appEntry) toApplication() (application.Application, error) {
	if e.Name == "" {
		return application.Application{}, errors.New("name is required")
	}
	src, err := e.Source.toSource()
	if err != nil {
		return application.Application{}, fmt.Errorf("%s: %w", e.Name, err)
	}
	for j, rf := range e.ReplaceFiles {
		if rf.Src == "" || rf.Dist == "" {
			return application.Application{}, fmt.Errorf("%s: replaceFiles[%d] needs src_file and dist_file", e.Name, j)
		}
	}
	return application.Application{
		Name:          e.Name,
		ApplicationID: e.ApplicationID,
		Version:       e.Version,
		Source:        src,
		ReplaceFiles:  e.ReplaceFiles,
		Descriptor:    e.YamlFiles,
	}, nil
}

func (s *sourceEntry) toSource() (application.Source, error) {
	switch {
	case s == nil:
		return nil, errors.New("source is required")
	case s.Type == "":
		return nil, errors.New("source.type is required")
	case s.Location == "":
		return nil, errors.New("source.location is required")
	case s.Type == sourceTypeLocal:
		return application.LocalSource{Path: s.Location}, nil
	default:
		return application.RemoteSource{Kind: s.Type, URL: s.Location, Branch: s.Branch}, nil
	}
}
