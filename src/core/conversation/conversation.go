package conversation

import (
	"sync"
	"time"
)

// Speaker 发言方
type Speaker string

const (
	SpeakerCustomer Speaker = "customer"
	SpeakerAgent    Speaker = "agent"
)

// Turn 一条转写记录，追加后不可修改
type Turn struct {
	Speaker   Speaker   `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation 单通呼叫的会话状态
// ID、CallerAddress、StartedAt 创建后不变；转写只追加；转人工原因只写一次
type Conversation struct {
	ID            string
	CallerAddress string
	StartedAt     time.Time

	mu               sync.RWMutex
	transcript       []Turn
	escalationReason string
	escalated        bool
}

func newConversation(id, callerAddress string, startedAt time.Time) *Conversation {
	return &Conversation{
		ID:            id,
		CallerAddress: callerAddress,
		StartedAt:     startedAt,
		transcript:    make([]Turn, 0),
	}
}

// Append 追加一条转写
func (c *Conversation) Append(turn Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, turn)
}

// Transcript 返回转写的快照副本
func (c *Conversation) Transcript() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Len 转写条数
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.transcript)
}

// SetEscalationReason 记录转人工原因；已设置过则保留原值并返回 false
func (c *Conversation) SetEscalationReason(reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.escalated {
		return false
	}
	c.escalationReason = reason
	c.escalated = true
	return true
}

// EscalationReason 返回转人工原因及是否已设置
func (c *Conversation) EscalationReason() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.escalationReason, c.escalated
}
