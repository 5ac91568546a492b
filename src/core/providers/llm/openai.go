package llm

import (
	"context"
	"errors"
	"fmt"

	"voice-relay-server/src/core/types"

	"github.com/angrymiao/go-openai"
)

type openAIProvider struct {
	client *openai.Client
	config *Config
}

func newOpenAIProvider(cfg *Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API Key 未配置")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &openAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (p *openAIProvider) Complete(ctx context.Context, messages []types.Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.ModelName,
		Messages:    chatMessages,
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("调用OpenAI失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("OpenAI 返回空结果")
	}
	return resp.Choices[0].Message.Content, nil
}
