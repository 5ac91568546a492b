package llm

import (
	"context"
	"fmt"
	"strings"

	"voice-relay-server/src/core/types"
)

// Config LLM提供者配置
type Config struct {
	Name        string
	Type        string
	ModelName   string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// Provider 对话补全能力
type Provider interface {
	Complete(ctx context.Context, messages []types.Message) (string, error)
}

type factory func(cfg *Config) (Provider, error)

var factories = map[string]factory{
	"openai": newOpenAIProvider,
	"gemini": newGeminiProvider,
}

// Create 根据类型创建LLM提供者
func Create(llmType string, cfg *Config) (Provider, error) {
	f, ok := factories[strings.ToLower(llmType)]
	if !ok {
		return nil, fmt.Errorf("未知的LLM类型: %s", llmType)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("LLM %s 未配置模型名称", cfg.Name)
	}
	return f(cfg)
}
