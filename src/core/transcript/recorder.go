package transcript

import (
	"strings"
	"time"

	"voice-relay-server/src/core/conversation"
)

const (
	// SummaryMaxChars 摘要最大字符数
	SummaryMaxChars = 500
	// EmptySummary 无转写时的摘要
	EmptySummary = "No conversation recorded"
)

// Recorder 转写记录器
type Recorder struct {
	now func() time.Time
}

// NewRecorder 创建转写记录器
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Record 以当前时间追加一条转写；会话为空时忽略
func (r *Recorder) Record(conv *conversation.Conversation, speaker conversation.Speaker, text string) {
	if conv == nil {
		return
	}
	conv.Append(conversation.Turn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: r.now(),
	})
}

// Summarize 拼接客户发言（单空格分隔），截取前 500 个字符
func Summarize(conv *conversation.Conversation) string {
	if conv == nil {
		return EmptySummary
	}
	return SummarizeTurns(conv.Transcript())
}

// SummarizeTurns 对转写快照生成摘要
func SummarizeTurns(turns []conversation.Turn) string {
	if len(turns) == 0 {
		return EmptySummary
	}
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Speaker == conversation.SpeakerCustomer {
			parts = append(parts, t.Text)
		}
	}
	joined := strings.Join(parts, " ")
	runes := []rune(joined)
	if len(runes) > SummaryMaxChars {
		return string(runes[:SummaryMaxChars])
	}
	return joined
}
