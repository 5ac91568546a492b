package llm

import (
	"context"
	"errors"
	"fmt"

	"voice-relay-server/src/core/types"

	"google.golang.org/genai"
)

type geminiProvider struct {
	client *genai.Client
	config *Config
}

func newGeminiProvider(cfg *Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API Key 未配置")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Gemini客户端失败: %w", err)
	}
	return &geminiProvider{client: client, config: cfg}, nil
}

// Complete system 消息转为 SystemInstruction，assistant 对应 model 角色
func (p *geminiProvider) Complete(ctx context.Context, messages []types.Message) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.config.Temperature)),
		MaxOutputTokens: int32(p.config.MaxTokens),
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			genConfig.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case types.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.ModelName, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("调用Gemini失败: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("Gemini 返回空结果")
	}
	return text, nil
}
