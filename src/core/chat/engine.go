package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voice-relay-server/src/core/types"
	"voice-relay-server/src/core/utils"
)

// EscalationMarker 大模型回复中表示转人工的标记
const EscalationMarker = "ESCALATE:"

// Completer 大模型补全能力
type Completer interface {
	Complete(ctx context.Context, messages []types.Message) (string, error)
}

// Decision 一轮对话的结果：普通回复或转人工
type Decision struct {
	IsEscalation bool
	Reason       string // 仅转人工时有效
	ReplyText    string // 大模型原始回复
}

// DialogueFailure 大模型调用失败
type DialogueFailure struct {
	Err error
}

func (e *DialogueFailure) Error() string {
	return fmt.Sprintf("对话生成失败: %v", e.Err)
}

func (e *DialogueFailure) Unwrap() error { return e.Err }

// Engine 对话引擎
type Engine struct {
	completer    Completer
	systemPrompt string
	logger       *utils.Logger
}

// NewEngine 创建对话引擎；systemPrompt 为坐席行为与知识库说明
func NewEngine(completer Completer, systemPrompt string, logger *utils.Logger) *Engine {
	return &Engine{
		completer:    completer,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// Initialize 创建只含一条 system 消息的对话历史
func (e *Engine) Initialize() *DialogueManager {
	dm := NewDialogueManager(e.logger)
	dm.SetSystemMessage(e.systemPrompt)
	return dm
}

// Turn 追加客户发言、调用大模型并分类回复
// 失败时历史中保留该 user 消息；同内容重试不会重复追加
func (e *Engine) Turn(ctx context.Context, dm *DialogueManager, customerText string) (Decision, error) {
	if pending, ok := dm.PendingUserMessage(); !ok || pending != customerText {
		dm.Put(Message{Role: types.RoleUser, Content: customerText})
	}

	start := time.Now()
	reply, err := e.completer.Complete(ctx, dm.GetLLMDialogue())
	if err != nil {
		return Decision{}, &DialogueFailure{Err: err}
	}
	e.logger.Debug("大模型回复耗时: %s, 历史长度: %d", time.Since(start), dm.Length())

	dm.Put(Message{Role: types.RoleAssistant, Content: reply})
	return Classify(reply), nil
}

// Classify 含转人工标记则为转人工，原因为首个标记之后去除首尾空白的文本
func Classify(reply string) Decision {
	idx := strings.Index(reply, EscalationMarker)
	if idx < 0 {
		return Decision{ReplyText: reply}
	}
	return Decision{
		IsEscalation: true,
		Reason:       strings.TrimSpace(reply[idx+len(EscalationMarker):]),
		ReplyText:    reply,
	}
}
