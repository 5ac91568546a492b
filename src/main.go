package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"voice-relay-server/src/configs"
	"voice-relay-server/src/configs/database"
	"voice-relay-server/src/core/chat"
	"voice-relay-server/src/core/conversation"
	"voice-relay-server/src/core/handoff"
	"voice-relay-server/src/core/middleware"
	"voice-relay-server/src/core/providers/llm"
	"voice-relay-server/src/core/transport/websocket"
	"voice-relay-server/src/core/utils"
	"voice-relay-server/src/httpsvr/monitor"
	"voice-relay-server/src/httpsvr/voice"
	"voice-relay-server/src/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownGracePeriod = 10 * time.Second

// Service 注册到 gin 的 HTTP 服务
type Service interface {
	Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup)
}

func LoadConfigAndLogger(path string) (*configs.Config, *utils.Logger, error) {
	config, configPath, err := configs.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败 %s: %w", configPath, err)
	}

	logger, err := utils.NewLogger(&utils.LogCfg{
		LogLevel: config.Log.LogLevel,
		LogDir:   config.Log.LogDir,
		LogFile:  config.Log.LogFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	logger.Info("日志器初始化成功, 配置文件路径: %s", configPath)
	return config, logger, nil
}

func newLLMProvider(config *configs.Config, logger *utils.Logger) (llm.Provider, error) {
	name, llmCfg, ok := config.SelectedLLM()
	if !ok {
		return nil, fmt.Errorf("未找到选中的LLM配置: %s", name)
	}
	provider, err := llm.Create(llmCfg.Type, &llm.Config{
		Name:        name,
		Type:        llmCfg.Type,
		ModelName:   llmCfg.ModelName,
		BaseURL:     llmCfg.BaseURL,
		APIKey:      llmCfg.APIKey,
		Temperature: llmCfg.Temperature,
		MaxTokens:   llmCfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("LLM 已就绪: %s (%s/%s)", name, llmCfg.Type, llmCfg.ModelName)
	return provider, nil
}

// newHandoffSinks 按配置创建转人工派发目标，返回需要在退出时执行的清理函数
func newHandoffSinks(ctx context.Context, config *configs.Config, logger *utils.Logger) ([]handoff.Sink, []func(), error) {
	var (
		sinks    []handoff.Sink
		cleanups []func()
	)
	for _, name := range config.Handoff.Sinks {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "redis":
			client, err := handoff.NewRedisClient(ctx, config.RedisCache)
			if err != nil {
				return nil, cleanups, err
			}
			cleanups = append(cleanups, func() { _ = client.Close() })
			sinks = append(sinks, handoff.NewRedisSink(client, config.RedisCache.Service))
		case "mqtt":
			client, err := handoff.NewMQTTClient(config.Mqtt, logger)
			if err != nil {
				return nil, cleanups, err
			}
			cleanups = append(cleanups, func() { client.Disconnect(250) })
			sinks = append(sinks, handoff.NewMQTTSink(client, config.Mqtt.TopicRoot, config.Mqtt.Qos))
		case "db":
			db, err := database.InitDB(config.DB, &models.HandoffTask{})
			if err != nil {
				return nil, cleanups, err
			}
			sinks = append(sinks, handoff.NewDBSink(db))
		default:
			return nil, cleanups, fmt.Errorf("未知的转人工派发目标: %s", name)
		}
		logger.Info("转人工派发目标已启用: %s", name)
	}
	return sinks, cleanups, nil
}

func startServer(ctx context.Context, config *configs.Config, logger *utils.Logger) error {
	provider, err := newLLMProvider(config, logger)
	if err != nil {
		return err
	}

	sinks, cleanups, err := newHandoffSinks(ctx, config, logger)
	defer func() {
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()
	if err != nil {
		return fmt.Errorf("初始化转人工派发失败: %w", err)
	}

	store := conversation.NewMemoryStore()
	engine := chat.NewEngine(provider, config.DefaultPrompt, logger)
	transport := websocket.NewTransport(logger)
	dispatcher := handoff.NewDispatcher(logger, sinks...)
	resolver := handoff.NewResolver(logger, sinks...)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.CORS())
	apiGroup := router.Group("/api")

	services := []Service{
		voice.NewVoiceService(config, logger, store, engine, transport, dispatcher),
		monitor.NewMonitorService(config, logger, store, resolver),
	}
	for _, svc := range services {
		svc.Start(ctx, router, apiGroup)
	}

	addr := fmt.Sprintf("%s:%d", config.Server.IP, config.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server running on %s", addr)
		logger.Info("WebSocket endpoint: ws://%s/conversation/{callSid}", addr)
		logger.Info("Voice webhook: http://%s/voice/incoming", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务启动失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("收到关闭信号，开始关闭服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		transport.Stop()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("关闭HTTP服务失败: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	config, logger, err := LoadConfigAndLogger(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := startServer(ctx, config, logger); err != nil {
		logger.Error("服务异常退出: %v", err)
		os.Exit(1)
	}
	logger.Info("服务已关闭")
}
