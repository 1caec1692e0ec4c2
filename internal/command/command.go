// Package command assembles the deploy tool argument vector.
package command

import "github.com/balaji-balu/gaedeploy/pkg/application"

const quietFlag = "-q"

// Overrides are values given on the command line. Empty means not given.
type Overrides struct {
	Version       string
	ApplicationID string
}

// Build returns [deployTool app deploy <descriptor> --project=<id>? -v <version>? -q].
// Overrides win over the application's configured values; a flag whose
// resolved value is empty is left out.
func Build(app *application.Application, descriptor string, o Overrides) []string {
	args := []string{app.DeployTool, "app", "deploy", descriptor}

	if project := firstNonEmpty(o.ApplicationID, app.ApplicationID); project != "" {
		args = append(args, "--project="+project)
	}
	if version := firstNonEmpty(o.Version, app.Version); version != "" {
		args = append(args, "-v", version)
	}
	return append(args, quietFlag)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
