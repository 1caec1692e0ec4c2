package deployer

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Lifecycle states of one deploy.
const (
	StateIdle         = "idle"
	StateStaging      = "staging"
	StateCommandBuilt = "command_built"
	StateExecuting    = "executing"
	StateSucceeded    = "succeeded"
	StateFailed       = "failed"
	StateCleanedUp    = "cleaned_up"
)

const (
	eventStage   = "stage"
	eventBuild   = "build"
	eventExecute = "execute"
	eventSucceed = "succeed"
	eventFail    = "fail"
	eventCleanup = "cleanup"
)

type lifecycle struct {
	machine *fsm.FSM
	logger  *zap.Logger
}

func newLifecycle(logger *zap.Logger) *lifecycle {
	l := &lifecycle{logger: logger}
	l.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventStage, Src: []string{StateIdle}, Dst: StateStaging},
			{Name: eventBuild, Src: []string{StateStaging}, Dst: StateCommandBuilt},
			{Name: eventExecute, Src: []string{StateCommandBuilt}, Dst: StateExecuting},
			// dry runs succeed straight from command_built
			{Name: eventSucceed, Src: []string{StateCommandBuilt, StateExecuting}, Dst: StateSucceeded},
			{Name: eventFail, Src: []string{StateStaging, StateCommandBuilt, StateExecuting}, Dst: StateFailed},
			{Name: eventCleanup, Src: []string{StateIdle, StateSucceeded, StateFailed}, Dst: StateCleanedUp},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				l.logger.Info("deploy state", zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
	return l
}

// fire moves the deploy to the next state. The transitions are fixed, so an
// error here means Deploy called them out of order.
func (l *lifecycle) fire(ctx context.Context, event string) error {
	if err := l.machine.Event(ctx, event); err != nil {
		l.logger.Error("invalid deploy state transition",
			zap.String("event", event), zap.String("state", l.machine.Current()), zap.Error(err))
		return fmt.Errorf("deploy state %s: event %s: %w", l.machine.Current(), event, err)
	}
	return nil
}

func (l *lifecycle) current() string {
	return l.machine.Current()
}
