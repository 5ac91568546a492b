package monitor

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"voice-relay-server/src/configs"
	"voice-relay-server/src/core/auth"
	"voice-relay-server/src/core/conversation"
	"voice-relay-server/src/core/handoff"
	"voice-relay-server/src/core/middleware"
	"voice-relay-server/src/core/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CallResolver 任务ID反查呼叫ID
type CallResolver interface {
	ResolveCallID(ctx context.Context, taskID string) (string, error)
}

// TranscriptResponse 转写查询结果
type TranscriptResponse struct {
	Success     bool                `json:"success"`
	CallSid     string              `json:"callSid"`
	Transcript  []conversation.Turn `json:"transcript"`
	CallerPhone string              `json:"callerPhone"`
	StartTime   time.Time           `json:"startTime"`
}

// MonitorService 健康检查、会话监控与转写查询
type MonitorService struct {
	logger   *utils.Logger
	config   *configs.Config
	store    conversation.Store
	resolver CallResolver
}

func NewMonitorService(config *configs.Config, logger *utils.Logger, store conversation.Store, resolver CallResolver) *MonitorService {
	return &MonitorService{
		logger:   logger,
		config:   config,
		store:    store,
		resolver: resolver,
	}
}

func (s *MonitorService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) {
	authMiddleware := middleware.BearerTokenAuth(
		s.config.Server.Auth.Enabled,
		auth.NewAuthToken(s.config.Server.Auth.JWTSecret),
		s.logger)

	engine.GET("/", s.handleHealth)
	engine.GET("/monitor", authMiddleware, s.handleMonitor)

	transcriptGroup := apiGroup.Group("/transcript").Use(authMiddleware)
	{
		transcriptGroup.GET("/:identifier", s.handleTranscript)
	}
}

func (s *MonitorService) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": s.config.Server.Service})
}

// handleMonitor 返回全部会话；带分页参数时按页返回，总数见 X-Total-Count
func (s *MonitorService) handleMonitor(c *gin.Context) {
	list := s.store.List()
	if params, ok := utils.ParsePageParams(c, defaultPageSize, maxPageSize); ok {
		c.Header("X-Total-Count", strconv.Itoa(len(list)))
		start, end := utils.ComputeSliceRange(len(list), params.Page, params.PageSize)
		list = list[start:end]
	}
	c.JSON(http.StatusOK, list)
}

// handleTranscript 先按呼叫ID查询，未命中且为任务ID时反查呼叫ID
func (s *MonitorService) handleTranscript(c *gin.Context) {
	identifier := c.Param("identifier")

	conv, ok := s.store.Get(identifier)
	if !ok && handoff.IsTaskID(identifier) && s.resolver != nil {
		s.logger.Info("Looking up TaskSid %s", identifier)
		callSid, err := s.resolver.ResolveCallID(c.Request.Context(), identifier)
		if err == nil {
			conv, ok = s.store.Get(callSid)
		} else if !errors.Is(err, handoff.ErrUnknownConversation) {
			s.logger.Error("Error looking up task %s: %v", identifier, err)
		}
	}

	if !ok {
		c.JSON(http.StatusNotFound, utils.UnifiedResponse{
			Code:    http.StatusNotFound,
			Success: false,
			Error:   handoff.ErrUnknownConversation.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, TranscriptResponse{
		Success:     true,
		CallSid:     conv.ID,
		Transcript:  conv.Transcript(),
		CallerPhone: conv.CallerAddress,
		StartTime:   conv.StartedAt,
	})
}
