package types

// 对话角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 发送给大模型的单条消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
