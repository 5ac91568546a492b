package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"voice-relay-server/src/core/conversation"
)

// EventType 中继协议事件类型
type EventType string

const (
	EventSetup     EventType = "setup"
	EventPrompt    EventType = "prompt"
	EventInterrupt EventType = "interrupt"
	EventError     EventType = "error"
	EventEnd       EventType = "end"
)

// ErrMalformedEvent 入站消息无法解析为协议事件
var ErrMalformedEvent = errors.New("malformed relay event")

// InboundEvent 入站事件；Raw 保留原始字段用于日志
type InboundEvent struct {
	Type        EventType
	VoicePrompt string
	Raw         map[string]interface{}
}

// ParseEvent 解析一条入站 JSON 消息
func ParseEvent(data []byte) (InboundEvent, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw == nil {
		return InboundEvent{}, fmt.Errorf("%w: not an object", ErrMalformedEvent)
	}
	typ, ok := raw["type"].(string)
	if !ok || typ == "" {
		return InboundEvent{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	ev := InboundEvent{Type: EventType(typ), Raw: raw}
	if ev.Type == EventPrompt {
		prompt, ok := raw["voicePrompt"].(string)
		if !ok {
			return InboundEvent{}, fmt.Errorf("%w: prompt without voicePrompt", ErrMalformedEvent)
		}
		ev.VoicePrompt = prompt
	}
	return ev, nil
}

// TextEvent 播报文本
type TextEvent struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// EndEvent 结束会话，handoffData 为序列化后的 HandoffBundle
type EndEvent struct {
	Type        string `json:"type"`
	HandoffData string `json:"handoffData"`
}

// HandoffBundle 转人工交接数据
type HandoffBundle struct {
	Reason     string              `json:"reason"`
	Transcript []conversation.Turn `json:"transcript"`
	Summary    string              `json:"summary"`
}

func newTextEvent(token string) TextEvent {
	return TextEvent{Type: "text", Token: token}
}

func newEndEvent(bundle HandoffBundle) (EndEvent, error) {
	if bundle.Transcript == nil {
		bundle.Transcript = []conversation.Turn{}
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return EndEvent{}, err
	}
	return EndEvent{Type: "end", HandoffData: string(data)}, nil
}
