package chat

import (
	"voice-relay-server/src/core/types"
	"voice-relay-server/src/core/utils"
)

type Message = types.Message

// DialogueManager 管理单个连接的对话上下文
// 首条为 system 消息，之后每完成一轮追加 user + assistant 两条
type DialogueManager struct {
	logger   *utils.Logger
	dialogue []Message
}

// NewDialogueManager 创建对话管理器实例
func NewDialogueManager(logger *utils.Logger) *DialogueManager {
	return &DialogueManager{
		logger:   logger,
		dialogue: make([]Message, 0),
	}
}

func (dm *DialogueManager) SetSystemMessage(systemMessage string) {
	if systemMessage == "" {
		return
	}

	// 如果对话中已经有系统消息，则更新其内容
	if len(dm.dialogue) > 0 && dm.dialogue[0].Role == types.RoleSystem {
		dm.dialogue[0].Content = systemMessage
		return
	}

	dm.dialogue = append([]Message{
		{Role: types.RoleSystem, Content: systemMessage},
	}, dm.dialogue...)
}

// Put 添加新消息到对话
func (dm *DialogueManager) Put(message Message) {
	dm.dialogue = append(dm.dialogue, message)
}

// PendingUserMessage 末条为未获回复的 user 消息时返回其内容
func (dm *DialogueManager) PendingUserMessage() (string, bool) {
	if len(dm.dialogue) == 0 {
		return "", false
	}
	last := dm.dialogue[len(dm.dialogue)-1]
	if last.Role != types.RoleUser {
		return "", false
	}
	return last.Content, true
}

// GetLLMDialogue 获取完整对话历史的副本
func (dm *DialogueManager) GetLLMDialogue() []Message {
	out := make([]Message, len(dm.dialogue))
	copy(out, dm.dialogue)
	return out
}

func (dm *DialogueManager) Length() int {
	return len(dm.dialogue)
}
