package llm

import "testing"

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		llmType string
		cfg     Config
		wantErr bool
	}{
		{name: "unknown type", llmType: "coze", cfg: Config{ModelName: "m", APIKey: "k"}, wantErr: true},
		{name: "missing model", llmType: "openai", cfg: Config{APIKey: "k"}, wantErr: true},
		{name: "openai without key", llmType: "openai", cfg: Config{ModelName: "gpt-4o-mini"}, wantErr: true},
		{name: "gemini without key", llmType: "gemini", cfg: Config{ModelName: "gemini-2.0-flash"}, wantErr: true},
		{name: "openai ok", llmType: "OpenAI", cfg: Config{ModelName: "gpt-4o-mini", APIKey: "sk-test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			p, err := Create(tt.llmType, &cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Create(%q) expected error", tt.llmType)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create(%q) error: %v", tt.llmType, err)
			}
			if p == nil {
				t.Fatalf("Create(%q) returned nil provider", tt.llmType)
			}
		})
	}
}
