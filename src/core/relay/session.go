package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voice-relay-server/src/core/chat"
	"voice-relay-server/src/core/conversation"
	"voice-relay-server/src/core/transcript"
	"voice-relay-server/src/core/utils"
)

const (
	DefaultHandoffDelay  = 2 * time.Second
	DefaultEscalationAck = "I understand. Let me connect you with a human agent who can better assist you."
)

// ErrPromptRejected 转人工开始后或会话关闭后收到的 prompt
var ErrPromptRejected = errors.New("prompt rejected: session no longer active")

// Conn 中继连接；关闭后 WriteJSON 为空操作
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Config 会话配置
type Config struct {
	EscalationAck string
	HandoffDelay  time.Duration
}

// Dependencies 会话依赖
type Dependencies struct {
	Conversation *conversation.Conversation
	Conn         Conn
	Recorder     *transcript.Recorder
	Engine       *chat.Engine
	Logger       *utils.Logger
	Config       Config

	// Schedule 延迟执行，返回的函数用于取消，默认 time.AfterFunc
	Schedule func(d time.Duration, f func()) (cancel func() bool)
}

// Session 单个中继连接的协议状态机
// 入站事件逐条处理，处理完成（含大模型调用）后才读取下一条
type Session struct {
	conv     *conversation.Conversation
	conn     Conn
	recorder *transcript.Recorder
	engine   *chat.Engine
	logger   *utils.Logger
	cfg      Config
	schedule func(d time.Duration, f func()) func() bool

	mu            sync.Mutex
	state         State
	dialogue      *chat.DialogueManager
	cancelHandoff func() bool

	handoffWG sync.WaitGroup
}

// New 创建会话；对话历史每个连接独立，转写随会话持久
func New(deps Dependencies) (*Session, error) {
	if deps.Conversation == nil || deps.Conn == nil || deps.Engine == nil {
		return nil, errors.New("relay: conversation, conn and engine are required")
	}
	cfg := deps.Config
	if cfg.HandoffDelay <= 0 {
		cfg.HandoffDelay = DefaultHandoffDelay
	}
	if cfg.EscalationAck == "" {
		cfg.EscalationAck = DefaultEscalationAck
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = transcript.NewRecorder()
	}
	schedule := deps.Schedule
	if schedule == nil {
		schedule = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	logger := deps.Logger
	if logger != nil {
		logger = logger.WithPrefix(deps.Conversation.ID)
	}

	return &Session{
		conv:     deps.Conversation,
		conn:     deps.Conn,
		recorder: recorder,
		engine:   deps.Engine,
		logger:   logger,
		cfg:      cfg,
		schedule: schedule,
		state:    StateAwaitingSetup,
		dialogue: deps.Engine.Initialize(),
	}, nil
}

// State 当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run 主消息循环，连接读取失败时关闭会话并返回
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Info("中继连接已断开: %v", err)
			return nil
		}
		if err := s.HandleMessage(ctx, message); err != nil {
			s.logger.Warn("处理消息失败: %v", err)
		}
	}
}

// HandleMessage 解析并处理一条入站消息；格式错误的消息被丢弃
func (s *Session) HandleMessage(ctx context.Context, message []byte) error {
	ev, err := ParseEvent(message)
	if err != nil {
		return err
	}
	return s.HandleEvent(ctx, ev)
}

// HandleEvent 处理一个入站事件
func (s *Session) HandleEvent(ctx context.Context, ev InboundEvent) error {
	s.mu.Lock()
	prev := s.state
	next, effect := Transition(prev, ev)
	s.state = next
	s.mu.Unlock()

	if prev != next {
		s.logger.Debug("状态变更: %s -> %s (%s)", prev, next, ev.Type)
	}

	switch effect {
	case EffectReady:
		s.logger.Info("ConversationRelay setup complete")
	case EffectRunTurn:
		return s.runTurn(ctx, ev.VoicePrompt)
	case EffectRejectPrompt:
		s.logger.Warn("会话状态为 %s，忽略客户发言: %s", next, ev.VoicePrompt)
		return ErrPromptRejected
	case EffectInterrupted:
		s.logger.Info("客户打断播报")
	case EffectTransportError:
		s.logger.Error("ConversationRelay error: %v", ev.Raw)
	case EffectEnded:
		s.logger.Info("通话结束")
	case EffectIgnored:
		s.logger.Debug("忽略事件: %s (状态 %s)", ev.Type, next)
	}
	return nil
}

// runTurn 记录客户发言、生成回复并发送；大模型失败时本轮静默
func (s *Session) runTurn(ctx context.Context, customerText string) error {
	s.logger.Info("Customer said: %s", customerText)
	s.recorder.Record(s.conv, conversation.SpeakerCustomer, customerText)

	decision, err := s.engine.Turn(ctx, s.dialogue, customerText)
	if err != nil {
		var failure *chat.DialogueFailure
		if errors.As(err, &failure) {
			s.logger.Error("大模型调用失败，本轮不回复: %v", failure.Err)
			return nil
		}
		return err
	}
	s.logger.Info("AI response: %s", decision.ReplyText)
	s.recorder.Record(s.conv, conversation.SpeakerAgent, decision.ReplyText)

	if !decision.IsEscalation {
		return s.send(newTextEvent(decision.ReplyText))
	}
	return s.escalate(decision.Reason)
}

// escalate 播报确认语并在延迟后发送携带交接数据的 end 事件；确认语只播报不入转写
func (s *Session) escalate(reason string) error {
	s.mu.Lock()
	if s.state != StateActive {
		// 大模型调用期间连接已关闭或已结束
		state := s.state
		s.mu.Unlock()
		s.conv.SetEscalationReason(reason)
		s.logger.Warn("会话状态为 %s，仅记录转人工原因: %s", state, reason)
		return nil
	}
	s.state = StateEscalating
	s.mu.Unlock()

	s.logger.Info("Escalating call: %s", reason)
	if !s.conv.SetEscalationReason(reason) {
		kept, _ := s.conv.EscalationReason()
		s.logger.Warn("转人工原因已存在，保留原值: %q (新值: %q)", kept, reason)
		reason = kept
	}

	turns := s.conv.Transcript()
	bundle := HandoffBundle{
		Reason:     reason,
		Transcript: turns,
		Summary:    transcript.SummarizeTurns(turns),
	}

	if err := s.send(newTextEvent(s.cfg.EscalationAck)); err != nil {
		return err
	}

	s.handoffWG.Add(1)
	cancel := s.schedule(s.cfg.HandoffDelay, func() {
		defer s.handoffWG.Done()
		s.sendHandoff(bundle)
	})

	s.mu.Lock()
	closed := s.state == StateClosed
	if !closed {
		s.cancelHandoff = cancel
	}
	s.mu.Unlock()
	if closed {
		// 调度期间连接已关闭
		s.stopHandoff(cancel)
	}
	return nil
}

func (s *Session) sendHandoff(bundle HandoffBundle) {
	end, err := newEndEvent(bundle)
	if err != nil {
		s.logger.Error("序列化交接数据失败: %v", err)
		return
	}
	if err := s.send(end); err != nil {
		s.logger.Warn("发送转人工 end 事件失败: %v", err)
		return
	}
	s.logger.Info("已发送转人工 end 事件, 转写条数: %d", len(bundle.Transcript))
}

func (s *Session) send(v interface{}) error {
	if err := s.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("发送消息失败: %w", err)
	}
	return nil
}

// WaitHandoff 等待已调度的转人工发送完成
func (s *Session) WaitHandoff() {
	s.handoffWG.Wait()
}

// Close 传输层关闭，任意状态转为 CLOSED，并取消尚未触发的转人工发送
func (s *Session) Close() {
	s.mu.Lock()
	prev := s.state
	s.state = StateClosed
	cancel := s.cancelHandoff
	s.cancelHandoff = nil
	s.mu.Unlock()

	if prev != StateClosed {
		s.logger.Info("会话关闭, 关闭前状态: %s", prev)
	}
	s.stopHandoff(cancel)
}

func (s *Session) stopHandoff(cancel func() bool) {
	if cancel == nil {
		return
	}
	if cancel() {
		s.handoffWG.Done()
		s.logger.Info("连接已关闭，取消待发送的转人工事件")
	}
}
