package application

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestNew_Defaults(t *testing.T) {
	app := New(Application{Name: "web"}, "/usr/bin/gcloud", "", createdAt)

	assert.Equal(t, "/usr/bin/gcloud", app.DeployTool)
	assert.Equal(t, DefaultTempFolder, app.TempFolder)
	assert.Equal(t, DefaultDescriptor, app.Descriptor)
	assert.Equal(t, "/tmp/deploy_folder_20240309140507", app.WorkFolder())
	assert.Equal(t, "/tmp/deploy_folder_20240309140507/app.yaml", app.DescriptorPath())
}

func TestNew_WorkFolderIsFixed(t *testing.T) {
	app := New(Application{Name: "web", Descriptor: "dispatch.yaml"}, "", "/var/tmp", createdAt)

	first := app.WorkFolder()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, first, app.WorkFolder())
	assert.Equal(t, "/var/tmp/deploy_folder_20240309140507/dispatch.yaml", app.DescriptorPath())
}

func TestSource_Location(t *testing.T) {
	tests := []struct {
		name   string
		source Source
		want   string
	}{
		{"local", LocalSource{Path: "/src/app"}, "/src/app"},
		{"remote", RemoteSource{Kind: "git", URL: "https://example.com/app.git"}, "https://example.com/app.git"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.source.Location())
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry([]*Application{
		New(Application{Name: "testapp1", Version: "1"}, "", "", createdAt),
		New(Application{Name: "testapp2", Version: "2"}, "", "", createdAt),
	})

	app, err := reg.Resolve("testapp2")
	require.NoError(t, err)
	assert.Equal(t, "2", app.Version)
	assert.Equal(t, []string{"testapp1", "testapp2"}, reg.Names())
}

func TestRegistry_ResolveNotFound(t *testing.T) {
	reg := NewRegistry([]*Application{New(Application{Name: "testapp1"}, "", "", createdAt)})

	for _, name := range []string{"notexist", "TestApp1", ""} {
		_, err := reg.Resolve(name)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf), "name %q", name)
		assert.Equal(t, name, nf.Name)
	}
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	reg := NewRegistry([]*Application{
		New(Application{Name: "dup", ApplicationID: "first"}, "", "", createdAt),
		New(Application{Name: "dup", ApplicationID: "second"}, "", "", createdAt),
	})

	app, err := reg.Resolve("dup")
	require.NoError(t, err)
	assert.Equal(t, "first", app.ApplicationID)
}
