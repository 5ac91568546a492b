package configs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PORT", "")
	cfg, _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Relay.HandoffDelayMs != 2000 {
		t.Fatalf("defaults not applied: port=%d delay=%d", cfg.Server.Port, cfg.Relay.HandoffDelayMs)
	}
	name, llm, ok := cfg.SelectedLLM()
	if !ok || name != "OpenAILLM" || llm.ModelName != "gpt-4o-mini" || llm.MaxTokens != 150 || llm.Temperature != 0.7 {
		t.Fatalf("selected llm=%s %+v ok=%v", name, llm, ok)
	}
	if cfg.Handoff.DefaultReason != "Customer requested agent" || cfg.DefaultPrompt == "" {
		t.Fatalf("handoff/prompt defaults missing")
	}
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 8080
  public_host: true
relay:
  handoff_delay_ms: 500
handoff:
  sinks: [redis, db]
selected_module:
  LLM: GeminiLLM
LLM:
  GeminiLLM:
    type: gemini
    model_name: gemini-2.0-flash
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("FLEX_WORKFLOW_SID", "WW999")
	t.Setenv("PORT", "9090")

	cfg, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 || !cfg.Server.PublicHost {
		t.Fatalf("server=%+v", cfg.Server)
	}
	if cfg.Relay.HandoffDelayMs != 500 || cfg.Relay.Voice == "" {
		t.Fatalf("relay=%+v", cfg.Relay)
	}
	if len(cfg.Handoff.Sinks) != 2 || cfg.Handoff.WorkflowSid != "WW999" {
		t.Fatalf("handoff=%+v", cfg.Handoff)
	}
	name, llm, ok := cfg.SelectedLLM()
	if !ok || name != "GeminiLLM" || llm.APIKey != "g-key" {
		t.Fatalf("selected llm=%s %+v ok=%v", name, llm, ok)
	}
	if llm.Temperature != DefaultLLMTemperature || llm.MaxTokens != DefaultLLMMaxTokens {
		t.Fatalf("omitted sampling fields not defaulted: %+v", llm)
	}
	if Cfg != cfg {
		t.Fatalf("global Cfg not updated")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("server: [unclosed"), 0o644)
	if _, _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadConfig_LLMExplicitSampling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
LLM:
  OpenAILLM:
    type: openai
    model_name: gpt-4o
    temperature: 0.2
    max_tokens: 400
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	_, llm, ok := cfg.SelectedLLM()
	if !ok || llm.ModelName != "gpt-4o" || llm.Temperature != 0.2 || llm.MaxTokens != 400 {
		t.Fatalf("selected llm=%+v ok=%v", llm, ok)
	}
}
