package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/balaji-balu/gaedeploy/internal/command"
	"github.com/balaji-balu/gaedeploy/internal/config"
	"github.com/balaji-balu/gaedeploy/internal/deployer"
	"github.com/balaji-balu/gaedeploy/internal/executor"
	"github.com/balaji-balu/gaedeploy/internal/logger"
	"github.com/balaji-balu/gaedeploy/internal/metrics"
	"github.com/balaji-balu/gaedeploy/internal/stager"
	"github.com/balaji-balu/gaedeploy/internal/telemetry"
	"github.com/balaji-balu/gaedeploy/pkg/application"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IsExpected reports whether err is an operational failure the operator can
// act on, as opposed to a defect.
func IsExpected(err error) bool {
	var (
		formatErr   *config.FormatError
		notFoundErr *application.NotFoundError
		failedErr   *executor.DeployFailedError
	)
	return errors.As(err, &formatErr) || errors.As(err, &notFoundErr) || errors.As(err, &failedErr)
}

func runDeploy(ctx context.Context, v *viper.Viper, appName string, opts *rootOptions) error {
	settings, err := config.LoadSettings(v)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Env(settings.Verbose), serviceName)
	if err != nil {
		return err
	}
	defer log.Sync()

	if settings.Trace {
		shutdown, err := telemetry.InitTracer(serviceName, os.Stderr)
		if err != nil {
			log.Warn("tracing disabled", zap.Error(err))
		} else {
			defer shutdown(context.Background())
		}
	}

	m := metrics.New()
	if settings.MetricsFile != "" {
		defer func() {
			if err := m.WriteTextfile(settings.MetricsFile); err != nil {
				log.Warn("failed to write metrics file", zap.String("path", settings.MetricsFile), zap.Error(err))
			}
		}()
	}

	err = deploy(ctx, log, settings, m, appName, opts)
	switch {
	case err == nil:
		return nil
	case IsExpected(err):
		log.Error(err.Error())
		return &exitError{code: 1, err: err}
	default:
		log.Error("unexpected failure", zap.Error(err), zap.Stack("stacktrace"))
		return &exitError{code: 2, err: err}
	}
}

func deploy(ctx context.Context, log *zap.Logger, settings config.Settings, m *metrics.Metrics, appName string, opts *rootOptions) error {
	cfg, err := config.LoadConfig(settings.ConfigFile)
	if err != nil {
		return err
	}
	app, err := cfg.Applications.Resolve(appName)
	if err != nil {
		log.Info("configured applications", zap.Strings("available", cfg.Applications.Names()))
		return err
	}

	st := stager.New(stager.GitCloner{Token: settings.GitToken, Depth: 1, Logger: log}, log)
	d := deployer.New(st, executor.New(settings.Timeout, log), log,
		deployer.WithDryRun(settings.DryRun),
		deployer.WithMetrics(m),
	)

	_, err = d.Deploy(ctx, app, command.Overrides{
		Version:       opts.version,
		ApplicationID: opts.applicationID,
	})
	return err
}
