package voice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"voice-relay-server/src/configs"
	"voice-relay-server/src/core/chat"
	"voice-relay-server/src/core/conversation"
	"voice-relay-server/src/core/handoff"
	"voice-relay-server/src/core/relay"
	"voice-relay-server/src/core/transcript"
	"voice-relay-server/src/core/transport/websocket"
	"voice-relay-server/src/core/utils"

	"github.com/gin-gonic/gin"
)

const dispatchTimeout = 5 * time.Second

// VoiceService 来电与转人工的 TwiML 回调，以及中继 WebSocket 入口
type VoiceService struct {
	logger     *utils.Logger
	config     *configs.Config
	store      conversation.Store
	recorder   *transcript.Recorder
	engine     *chat.Engine
	transport  *websocket.Transport
	dispatcher *handoff.Dispatcher
}

func NewVoiceService(config *configs.Config, logger *utils.Logger, store conversation.Store,
	engine *chat.Engine, transport *websocket.Transport, dispatcher *handoff.Dispatcher) *VoiceService {
	return &VoiceService{
		logger:     logger,
		config:     config,
		store:      store,
		recorder:   transcript.NewRecorder(),
		engine:     engine,
		transport:  transport,
		dispatcher: dispatcher,
	}
}

func (s *VoiceService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) {
	voiceGroup := engine.Group("/voice")
	{
		voiceGroup.POST("/incoming", s.handleIncoming)
		voiceGroup.POST("/handoff", s.handleHandoff)
	}
	engine.GET("/conversation/:callSid", s.handleRelay)
}

// wsScheme 公网地址（含 ngrok 隧道）走 wss
func (s *VoiceService) wsScheme(host string) string {
	if s.config.Server.PublicHost || strings.Contains(host, "ngrok") {
		return "wss"
	}
	return "ws"
}

func (s *VoiceService) handleIncoming(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	callerPhone := c.PostForm("From")
	if callSid == "" {
		utils.Error(c, http.StatusBadRequest, "缺少 CallSid")
		return
	}
	s.logger.Info("Incoming call from %s, CallSid: %s", callerPhone, callSid)

	s.store.GetOrCreate(callSid, callerPhone)

	host := c.Request.Host
	resp := twimlResponse{
		Connect: &twimlConnect{
			Action: fmt.Sprintf("https://%s/voice/handoff", host),
			Relay: twimlConvRelay{
				URL:             fmt.Sprintf("%s://%s/conversation/%s", s.wsScheme(host), host, callSid),
				Voice:           s.config.Relay.Voice,
				WelcomeGreeting: s.config.Relay.WelcomeGreeting,
			},
		},
	}
	body, err := resp.render()
	if err != nil {
		utils.ErrorWithDetail(c, http.StatusInternalServerError, "生成TwiML失败", err)
		return
	}
	s.logger.Debug("TwiML Response: %s", body)
	utils.XML(c, body)
}

func (s *VoiceService) handleHandoff(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	from := c.PostForm("From")
	s.logger.Info("Escalating call %s to human agent", callSid)

	conv, _ := s.store.Get(callSid)
	desc, err := handoff.BuildDescriptor(conv, callSid, from, s.config.Handoff.DefaultReason)
	if err != nil {
		utils.ErrorWithDetail(c, http.StatusInternalServerError, "生成任务属性失败", err)
		return
	}

	if s.dispatcher != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), dispatchTimeout)
		task, err := s.dispatcher.Dispatch(ctx, desc)
		cancel()
		if err != nil {
			// 派发失败不影响来电入队
			s.logger.Warn("转人工任务 %s 部分派发失败: %v", task.ID, err)
		}
		if task.ID != "" {
			desc = task.Descriptor
		}
	}

	attrs, err := desc.JSON()
	if err != nil {
		utils.ErrorWithDetail(c, http.StatusInternalServerError, "生成任务属性失败", err)
		return
	}
	s.logger.Debug("Task attributes: %s", attrs)

	resp := twimlResponse{
		Say: &twimlSay{Text: s.config.Handoff.HoldMessage},
		Enqueue: &twimlEnqueue{
			WorkflowSid: s.config.Handoff.WorkflowSid,
			Task:        twimlTask{Attributes: attrs},
		},
	}
	body, err := resp.render()
	if err != nil {
		utils.ErrorWithDetail(c, http.StatusInternalServerError, "生成TwiML失败", err)
		return
	}
	utils.XML(c, body)
}

// handleRelay 升级为 WebSocket 并运行中继会话，直到连接断开
func (s *VoiceService) handleRelay(c *gin.Context) {
	callSid := c.Param("callSid")
	conv := s.store.GetOrCreate(callSid, "")

	conn, err := s.transport.Accept(c.Writer, c.Request)
	if err != nil {
		s.logger.Error("%v", err)
		return
	}
	defer s.transport.Release(conn)
	s.logger.Info("WebSocket connected for call: %s", callSid)

	session, err := relay.New(relay.Dependencies{
		Conversation: conv,
		Conn:         conn,
		Recorder:     s.recorder,
		Engine:       s.engine,
		Logger:       s.logger,
		Config: relay.Config{
			EscalationAck: s.config.Relay.EscalationAck,
			HandoffDelay:  time.Duration(s.config.Relay.HandoffDelayMs) * time.Millisecond,
		},
	})
	if err != nil {
		s.logger.Error("创建中继会话失败: %v", err)
		return
	}
	if err := session.Run(c.Request.Context()); err != nil {
		s.logger.Warn("中继会话异常结束: %v", err)
	}
	s.logger.Info("WebSocket closed for call: %s", callSid)
}
