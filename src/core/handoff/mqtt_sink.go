package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"voice-relay-server/src/configs"
	"voice-relay-server/src/core/utils"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttPublishTimeout = 5 * time.Second

// MQTTSink 任务发布到 {topic_root}/handoff/{callSid}
type MQTTSink struct {
	client    mqtt.Client
	topicRoot string
	qos       byte
}

// NewMQTTClient 连接 Broker
func NewMQTTClient(cfg configs.MqttConfig, logger *utils.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(fmt.Sprintf("%s-%d", cfg.ClientIDPrefix, time.Now().UnixNano()))
	if u := cfg.Username; u != "" {
		opts.SetUsername(u)
		logger.Info("MQTT 使用认证连接: username=%s", u)
	} else {
		logger.Warn("MQTT 未配置用户名，使用匿名连接")
	}
	if p := cfg.Password; p != "" {
		opts.SetPassword(p)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT连接丢失: %v", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("MQTT已连接: %s", cfg.Broker)
	})

	client := mqtt.NewClient(opts)
	tk := client.Connect()
	if !tk.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("MQTT连接超时: %s", cfg.Broker)
	}
	if err := tk.Error(); err != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", err)
	}
	return client, nil
}

func NewMQTTSink(client mqtt.Client, topicRoot string, qos int) *MQTTSink {
	if topicRoot == "" {
		topicRoot = "relay"
	}
	return &MQTTSink{client: client, topicRoot: strings.TrimSuffix(topicRoot, "/"), qos: byte(qos)}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) topic(callSid string) string {
	return fmt.Sprintf("%s/handoff/%s", s.topicRoot, callSid)
}

func (s *MQTTSink) Dispatch(ctx context.Context, task Task) error {
	bytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	token := s.client.Publish(s.topic(task.Descriptor.CallSid), s.qos, false, bytes)
	if token == nil {
		return fmt.Errorf("写入失败")
	}
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mqttPublishTimeout):
		return fmt.Errorf("写入超时")
	}
	return token.Error()
}
