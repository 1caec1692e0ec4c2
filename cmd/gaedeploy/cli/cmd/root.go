package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/balaji-balu/gaedeploy/internal/config"
	"github.com/spf13/cobra"
)

const serviceName = "gaedeploy"

var boundFlags = []string{"config", "timeout", "verbose", "dry-run", "metrics-file", "trace"}

// exitError carries the process exit code chosen for a failed run. The
// failure has already been logged when it is returned.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type rootOptions struct {
	version       string
	applicationID string
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "gaedeploy <applicationName> [-v VERSION] [-a APPLICATION_ID] [-c CONFIG_PATH]",
		Short: "Deploy an application described in deploy.yml",
		Long: `gaedeploy looks up an application in the deploy configuration, stages its
source in a temporary work folder and runs the deploy tool on it:

  <deployTool> app deploy <workFolder>/<yamlFiles> --project=<id> -v <version> -q

Command line values for version and application id win over the configured ones.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), v, args[0], opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.version, "version", "v", "", "app engine version")
	flags.StringVarP(&opts.applicationID, "application-id", "a", "", "application id")
	flags.StringP("config", "c", config.DefaultConfigFile, "configuration file")
	flags.Duration("timeout", config.DefaultTimeout, "maximum time to wait for the deploy tool")
	flags.Bool("verbose", false, "enable development logging")
	flags.Bool("dry-run", false, "stage and print the deploy command without running it")
	flags.String("metrics-file", "", "write prometheus metrics to this file after the run")
	flags.Bool("trace", false, "print OpenTelemetry spans to stderr")

	for _, name := range boundFlags {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, newRootCmd(), os.Args[1:])
}

func execute(ctx context.Context, rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	fmt.Fprint(rootCmd.ErrOrStderr(), rootCmd.UsageString())
	return 1
}
