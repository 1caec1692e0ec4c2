// Package deployer runs one application deploy end to end: stage, build the
// command, execute it and always remove the work folder afterwards.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/balaji-balu/gaedeploy/internal/command"
	"github.com/balaji-balu/gaedeploy/internal/executor"
	"github.com/balaji-balu/gaedeploy/internal/metrics"
	"github.com/balaji-balu/gaedeploy/pkg/application"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/balaji-balu/gaedeploy/internal/deployer"

type Stager interface {
	Stage(ctx context.Context, app *application.Application) (string, error)
}

type Executor interface {
	Execute(ctx context.Context, command []string) (string, error)
}

// Result describes a finished deploy.
type Result struct {
	RunID      string
	WorkFolder string
	Command    []string
	Output     string
	State      string
}

type Option func(*Deployer)

// WithDryRun stages and builds the command without executing it.
func WithDryRun(dryRun bool) Option {
	return func(d *Deployer) { d.dryRun = dryRun }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Deployer) { d.metrics = m }
}

type Deployer struct {
	stager   Stager
	executor Executor
	logger   *zap.Logger
	metrics  *metrics.Metrics
	dryRun   bool
}

func New(stager Stager, exec Executor, logger *zap.Logger, opts ...Option) *Deployer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deployer{stager: stager, executor: exec, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deploy deploys app once. The work folder is removed before Deploy returns,
// whatever the outcome.
func (d *Deployer) Deploy(ctx context.Context, app *application.Application, o command.Overrides) (res Result, err error) {
	res = Result{RunID: uuid.NewString(), WorkFolder: app.WorkFolder()}
	log := d.logger.With(zap.String("run_id", res.RunID), zap.String("app", app.Name))
	lc := newLifecycle(log)
	started := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "deploy", trace.WithAttributes(
		attribute.String("app.name", app.Name),
		attribute.String("run.id", res.RunID),
	))
	defer span.End()

	if d.metrics != nil {
		d.metrics.DeploymentsTotal.WithLabelValues(app.Name).Inc()
	}

	defer func() {
		if rmErr := os.RemoveAll(res.WorkFolder); rmErr != nil {
			log.Error("failed to remove work folder", zap.String("dir", res.WorkFolder), zap.Error(rmErr))
			if err == nil {
				err = fmt.Errorf("remove work folder %s: %w", res.WorkFolder, rmErr)
			}
		}
		if fsmErr := lc.fire(ctx, eventCleanup); fsmErr != nil && err == nil {
			err = fsmErr
		}
		res.State = lc.current()
		d.record(app.Name, started, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err := lc.fire(ctx, eventStage); err != nil {
		return res, err
	}
	descriptor, err := d.stage(ctx, app)
	if err != nil {
		return res, errors.Join(fmt.Errorf("stage %s: %w", app.Name, err), lc.fire(ctx, eventFail))
	}

	if err := lc.fire(ctx, eventBuild); err != nil {
		return res, err
	}
	res.Command = command.Build(app, descriptor, o)
	span.SetAttributes(attribute.StringSlice("deploy.command", res.Command))

	if d.dryRun {
		log.Info("dry run, deploy tool not invoked", zap.Strings("command", res.Command))
		return res, lc.fire(ctx, eventSucceed)
	}

	if err := lc.fire(ctx, eventExecute); err != nil {
		return res, err
	}
	res.Output, err = d.execute(ctx, res.Command)
	if err != nil {
		log.Error("deploy failed", zap.Error(err))
		return res, errors.Join(err, lc.fire(ctx, eventFail))
	}

	return res, lc.fire(ctx, eventSucceed)
}

func (d *Deployer) stage(ctx context.Context, app *application.Application) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "stage")
	defer span.End()
	return d.stager.Stage(ctx, app)
}

func (d *Deployer) execute(ctx context.Context, cmd []string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "execute")
	defer span.End()
	return d.executor.Execute(ctx, cmd)
}

func (d *Deployer) record(app string, started time.Time, err error) {
	if d.metrics == nil {
		return
	}
	d.metrics.DeployDuration.WithLabelValues(app).Observe(time.Since(started).Seconds())
	if err == nil {
		d.metrics.LastSuccess.WithLabelValues(app).SetToCurrentTime()
		return
	}
	reason := "stage"
	var failed *executor.DeployFailedError
	if errors.As(err, &failed) {
		reason = failed.Reason()
	}
	d.metrics.DeploymentsFailed.WithLabelValues(app, reason).Inc()
}
