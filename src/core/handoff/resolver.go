package handoff

import (
	"context"
	"errors"
	"strings"

	"voice-relay-server/src/core/utils"
)

type taskLookup interface {
	Name() string
	lookup(ctx context.Context, taskID string) (string, error)
}

// Resolver 任务ID反查呼叫ID，依次查询数据库与 Redis 索引
type Resolver struct {
	lookups []taskLookup
	logger  *utils.Logger
}

// NewResolver 从派发目标中取出可查询的目标
func NewResolver(logger *utils.Logger, sinks ...Sink) *Resolver {
	r := &Resolver{logger: logger}
	var redisLookup taskLookup
	for _, s := range sinks {
		switch l := s.(type) {
		case *DBSink:
			r.lookups = append(r.lookups, l)
		case *RedisSink:
			redisLookup = l
		}
	}
	if redisLookup != nil {
		r.lookups = append(r.lookups, redisLookup)
	}
	return r
}

// IsTaskID 标识符是否为任务ID
func IsTaskID(identifier string) bool {
	return strings.HasPrefix(identifier, TaskIDPrefix)
}

// ResolveCallID 返回任务对应的呼叫ID，无法解析时返回 ErrUnknownConversation
func (r *Resolver) ResolveCallID(ctx context.Context, taskID string) (string, error) {
	if r == nil || !IsTaskID(taskID) {
		return "", ErrUnknownConversation
	}
	for _, l := range r.lookups {
		callSid, err := l.lookup(ctx, taskID)
		if err == nil && callSid != "" {
			r.logger.Info("Found callSid %s for task %s (%s)", callSid, taskID, l.Name())
			return callSid, nil
		}
		if err != nil && !errors.Is(err, ErrUnknownConversation) {
			r.logger.Error("Error looking up task %s via %s: %v", taskID, l.Name(), err)
		}
	}
	return "", ErrUnknownConversation
}
