package application

import (
	"path/filepath"
	"time"
)

const (
	DefaultDescriptor = "app.yaml"
	DefaultTempFolder = "/tmp"

	workFolderPrefix = "deploy_folder_"
	workFolderLayout = "20060102150405"
)

// Source is where an application's deployable tree comes from.
// It is either LocalSource or RemoteSource.
type Source interface {
	Location() string
	isSource()
}

// LocalSource is a directory on this machine that gets copied.
type LocalSource struct {
	Path string
}

func (s LocalSource) Location() string { return s.Path }
func (LocalSource) isSource()          {}

// RemoteSource is a repository that gets cloned.
type RemoteSource struct {
	Kind   string // value of source.type, e.g. "git"
	URL    string
	Branch string // empty means remote HEAD
}

func (s RemoteSource) Location() string { return s.URL }
func (RemoteSource) isSource()          {}

// ReplaceFile copies Src over Dist inside the staged tree.
type ReplaceFile struct {
	Src  string `yaml:"src_file"`
	Dist string `yaml:"dist_file"`
}

// Application is one deployable entry of the configuration file.
type Application struct {
	Name          string
	ApplicationID string
	Version       string
	Source        Source
	ReplaceFiles  []ReplaceFile
	Descriptor    string

	// shared with the owning configuration
	DeployTool string
	TempFolder string

	workFolder string
}

// New binds an application to the configuration-wide deploy tool and temp
// folder and fixes its work folder from createdAt.
func New(app Application, deployTool, tempFolder string, createdAt time.Time) *Application {
	if tempFolder == "" {
		tempFolder = DefaultTempFolder
	}
	if app.Descriptor == "" {
		app.Descriptor = DefaultDescriptor
	}
	app.DeployTool = deployTool
	app.TempFolder = tempFolder
	app.workFolder = filepath.Join(tempFolder, workFolderPrefix+createdAt.Format(workFolderLayout))
	return &app
}

// WorkFolder is the staging directory used by every deploy of this instance.
func (a *Application) WorkFolder() string {
	return a.workFolder
}

// DescriptorPath is the deploy descriptor inside the work folder.
func (a *Application) DescriptorPath() string {
	return a.workFolder + "/" + a.Descriptor
}
