package configs

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`         // Redis地址
	Password string `yaml:"password" json:"password"` // Redis密码
	DB       int    `yaml:"db" json:"db"`             // Redis数据库
	Service  string `yaml:"service" json:"service"`   // Redis服务名称
}

// DBConfig 数据库配置
type DBConfig struct {
	Dialect string `yaml:"dialect" json:"dialect"` // 数据库类型 postgres/sqlite
	DSN     string `yaml:"dsn" json:"dsn"`         // 数据库连接字符串
}

// MqttConfig MQTT配置（用于转人工通知）
type MqttConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Broker         string `yaml:"broker" json:"broker"`
	Username       string `yaml:"username" json:"username"`
	Password       string `yaml:"password" json:"password"`
	TopicRoot      string `yaml:"topic_root" json:"topic_root"`
	Qos            int    `yaml:"qos" json:"qos"`
	ClientIDPrefix string `yaml:"client_id_prefix" json:"client_id_prefix"`
}

// LLMConfig LLM配置结构
type LLMConfig struct {
	Type        string  `yaml:"type"        json:"type"`        // LLM类型 openai/gemini
	ModelName   string  `yaml:"model_name"  json:"model_name"`  // 模型名称
	BaseURL     string  `yaml:"url"         json:"url"`         // API地址
	APIKey      string  `yaml:"api_key"     json:"api_key"`     // API密钥
	Temperature float64 `yaml:"temperature" json:"temperature"` // 温度参数
	MaxTokens   int     `yaml:"max_tokens"  json:"max_tokens"`  // 最大令牌数
}

// RelayConfig 语音会话中继配置
type RelayConfig struct {
	Voice           string `yaml:"voice"            json:"voice"`
	WelcomeGreeting string `yaml:"welcome_greeting" json:"welcome_greeting"`
	EscalationAck   string `yaml:"escalation_ack"   json:"escalation_ack"`   // 转人工前播报的确认语
	HandoffDelayMs  int    `yaml:"handoff_delay_ms" json:"handoff_delay_ms"` // 确认语播放后再发送 end 的延迟
}

// HandoffConfig 转人工配置
type HandoffConfig struct {
	Sinks         []string `yaml:"sinks"          json:"sinks"` // redis/mqtt/db
	WorkflowSid   string   `yaml:"workflow_sid"   json:"workflow_sid"`
	DefaultReason string   `yaml:"default_reason" json:"default_reason"`
	HoldMessage   string   `yaml:"hold_message"   json:"hold_message"`
}

// Config 主配置结构
type Config struct {
	Server struct {
		IP         string `yaml:"ip" json:"ip"`
		Port       int    `yaml:"port" json:"port"`
		PublicHost bool   `yaml:"public_host" json:"public_host"` // 对外地址走 TLS（wss/https）
		Service    string `yaml:"service" json:"service"`
		Auth       struct {
			Enabled   bool   `yaml:"enabled" json:"enabled"`
			JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"`
		} `yaml:"auth" json:"auth"`
	} `yaml:"server" json:"server"`

	// Redis缓存配置
	RedisCache RedisConfig `yaml:"redis_cache" json:"redis_cache"`

	// 数据库配置
	DB DBConfig `yaml:"db" json:"db"`

	Mqtt MqttConfig `yaml:"mqtt" json:"mqtt"`

	Log struct {
		LogLevel string `yaml:"log_level" json:"log_level"`
		LogDir   string `yaml:"log_dir" json:"log_dir"`
		LogFile  string `yaml:"log_file" json:"log_file"`
	} `yaml:"log" json:"log"`

	DefaultPrompt string `yaml:"prompt" json:"prompt"`

	Relay   RelayConfig   `yaml:"relay"   json:"relay"`
	Handoff HandoffConfig `yaml:"handoff" json:"handoff"`

	SelectedModule map[string]string    `yaml:"selected_module" json:"selected_module"`
	LLM            map[string]LLMConfig `yaml:"LLM"             json:"LLM"`
}

var (
	Cfg *Config
)

const defaultPrompt = `You are a helpful virtual assistant for a customer service center.
Your role is to:
1. Greet customers warmly
2. Understand their issue or question
3. Provide helpful information
4. If you cannot resolve the issue or the customer requests a human agent, escalate the call

Keep responses concise (1-2 sentences) since this is a voice conversation.
Be friendly, professional, and empathetic.

When you need to escalate to a human agent, respond with exactly: "ESCALATE: [reason]"
For example: "ESCALATE: Customer requested human agent" or "ESCALATE: Complex billing issue"`

func (cfg *Config) ToString() string {
	data, _ := yaml.Marshal(cfg)
	return string(data)
}

func (cfg *Config) FromString(data string) error {
	return yaml.Unmarshal([]byte(data), cfg)
}

// SelectedLLM 返回当前选中的LLM配置
func (cfg *Config) SelectedLLM() (string, LLMConfig, bool) {
	name := cfg.SelectedModule["LLM"]
	c, ok := cfg.LLM[name]
	return name, c, ok
}

func (cfg *Config) setDefaults() {
	cfg.Server.IP = "0.0.0.0"
	cfg.Server.Port = 3000
	cfg.Server.Service = "Twilio ConversationRelay Server"

	cfg.RedisCache.Service = "relay"

	cfg.DB.Dialect = "sqlite"
	cfg.DB.DSN = "relay.db"

	cfg.Mqtt.Broker = "tcp://localhost:1883"
	cfg.Mqtt.TopicRoot = "relay"
	cfg.Mqtt.ClientIDPrefix = "voice-relay"

	cfg.Log.LogDir = "logs"
	cfg.Log.LogLevel = "INFO"
	cfg.Log.LogFile = "server.log"

	cfg.DefaultPrompt = defaultPrompt

	cfg.Relay.Voice = "en-US-Neural2-F"
	cfg.Relay.WelcomeGreeting = "Hello! Thank you for calling. How can I help you today?"
	cfg.Relay.EscalationAck = "I understand. Let me connect you with a human agent who can better assist you."
	cfg.Relay.HandoffDelayMs = 2000

	cfg.Handoff.DefaultReason = "Customer requested agent"
	cfg.Handoff.HoldMessage = "Please hold while I connect you with an agent."

	cfg.SelectedModule = map[string]string{"LLM": "OpenAILLM"}
	cfg.LLM = map[string]LLMConfig{
		"OpenAILLM": {
			Type:        "openai",
			ModelName:   "gpt-4o-mini",
			Temperature: DefaultLLMTemperature,
			MaxTokens:   DefaultLLMMaxTokens,
		},
	}
}

const (
	DefaultLLMTemperature = 0.7
	DefaultLLMMaxTokens   = 150
)

// fillLLMDefaults 未配置的温度与最大令牌数取默认值
func (cfg *Config) fillLLMDefaults() {
	for name, c := range cfg.LLM {
		if c.Temperature == 0 {
			c.Temperature = DefaultLLMTemperature
		}
		if c.MaxTokens <= 0 {
			c.MaxTokens = DefaultLLMMaxTokens
		}
		cfg.LLM[name] = c
	}
}

// applyEnv 环境变量覆盖密钥类配置
func (cfg *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FLEX_WORKFLOW_SID"); v != "" {
		cfg.Handoff.WorkflowSid = v
	}
	for name, c := range cfg.LLM {
		if c.APIKey != "" {
			continue
		}
		switch c.Type {
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			c.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		cfg.LLM[name] = c
	}
}

// LoadConfig 从config.yaml加载；文件缺失时使用默认配置
func LoadConfig(path string) (*Config, string, error) {
	if path == "" {
		path = "config.yaml"
	}
	config := &Config{}
	config.setDefaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, path, err
		}
	}
	config.fillLLMDefaults()
	config.applyEnv()

	Cfg = config
	return config, path, nil
}
