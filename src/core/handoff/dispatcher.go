package handoff

import (
	"context"
	"fmt"
	"time"

	"voice-relay-server/src/core/utils"

	"golang.org/x/sync/errgroup"
)

// Sink 转人工任务的一个派发目标
type Sink interface {
	Name() string
	Dispatch(ctx context.Context, task Task) error
}

// Dispatcher 将任务并发派发到所有目标
type Dispatcher struct {
	sinks  []Sink
	logger *utils.Logger
	now    func() time.Time
}

func NewDispatcher(logger *utils.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, logger: logger, now: time.Now}
}

// Sinks 已配置的派发目标名称
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Dispatch 生成任务ID并写入任务属性后派发，返回任务；任一目标失败时返回首个错误，其余目标照常执行
func (d *Dispatcher) Dispatch(ctx context.Context, desc TaskDescriptor) (Task, error) {
	id, err := NewTaskID()
	if err != nil {
		return Task{}, err
	}
	task := Task{ID: id, CreatedAt: d.now()}
	desc.RelayTaskID = task.ID
	task.Descriptor = desc
	if len(d.sinks) == 0 {
		return task, nil
	}

	var g errgroup.Group
	for _, sink := range d.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Dispatch(ctx, task); err != nil {
				d.logger.Error("转人工任务派发失败 sink=%s task=%s: %v", sink.Name(), task.ID, err)
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			d.logger.Debug("转人工任务已派发 sink=%s task=%s", sink.Name(), task.ID)
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		d.logger.Info("转人工任务 %s 已派发, callSid=%s, sinks=%v", task.ID, desc.CallSid, d.Sinks())
	}
	return task, err
}
