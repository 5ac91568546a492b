package handoff

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voice-relay-server/src/core/conversation"
	"voice-relay-server/src/core/transcript"
	"voice-relay-server/src/core/utils"
)

const (
	// TaskIDPrefix 任务ID前缀，与 TaskRouter 的任务 SID 一致
	TaskIDPrefix = "WT"
	taskIDLength = 32

	DefaultReason = "Customer requested agent"
)

// ErrUnknownConversation 呼叫ID或任务ID无法对应到会话
var ErrUnknownConversation = errors.New("Conversation not found")

// TaskDescriptor 提交给人工坐席队列的任务属性
type TaskDescriptor struct {
	Type                   string `json:"type"`
	Name                   string `json:"name"`
	From                   string `json:"from"`
	Direction              string `json:"direction"`
	CallSid                string `json:"callSid"`
	ConversationSummary    string `json:"conversationSummary"`
	VirtualAgentTranscript string `json:"virtualAgentTranscript"`
	EscalationReason       string `json:"escalationReason"`
	// RelayTaskID 本服务生成的任务ID，坐席端可凭此查询转写
	RelayTaskID string `json:"relayTaskId,omitempty"`
}

// Task 一次转人工派发
type Task struct {
	ID         string         `json:"taskId"`
	Descriptor TaskDescriptor `json:"attributes"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewTaskID 生成任务ID
func NewTaskID() (string, error) {
	suffix, err := utils.GenerateAlphaRandomKeyWithNanoid(taskIDLength, utils.TaskAlpha)
	if err != nil {
		return "", fmt.Errorf("生成任务ID失败: %w", err)
	}
	return TaskIDPrefix + suffix, nil
}

// BuildDescriptor 根据会话生成任务属性
// 会话不存在时主叫取 from，原因为空时取 defaultReason
func BuildDescriptor(conv *conversation.Conversation, callSid, from, defaultReason string) (TaskDescriptor, error) {
	if defaultReason == "" {
		defaultReason = DefaultReason
	}
	caller := from
	reason := defaultReason
	turns := []conversation.Turn{}
	if conv != nil {
		if conv.CallerAddress != "" {
			caller = conv.CallerAddress
		}
		if r, ok := conv.EscalationReason(); ok && r != "" {
			reason = r
		}
		turns = conv.Transcript()
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return TaskDescriptor{}, err
	}
	return TaskDescriptor{
		Type:                   "inbound",
		Name:                   caller,
		From:                   caller,
		Direction:              "inbound",
		CallSid:                callSid,
		ConversationSummary:    transcript.Summarize(conv),
		VirtualAgentTranscript: string(data),
		EscalationReason:       reason,
	}, nil
}

// JSON 任务属性的 JSON 文本
func (d TaskDescriptor) JSON() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
