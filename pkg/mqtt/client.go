// Package mqtt 提供 MQTT 客户端封装
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Config MQTT 配置
type Config struct {
	Broker         string
	Port           int
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	KeepAlive      int
	AutoReconnect  bool
	ConnectTimeout int
}

// Client MQTT 客户端
type Client struct {
	config *Config
	client mqtt.Client
	log    *zap.Logger
}

// NewClient 创建 MQTT 客户端
func NewClient(config *Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		config: config,
		log:    log.Named("mqtt"),
	}
}

// Connect 连接 MQTT Broker
func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", c.config.Broker, c.config.Port))
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(time.Duration(c.config.KeepAlive) * time.Second)
	opts.SetAutoReconnect(c.config.AutoReconnect)
	opts.SetConnectTimeout(time.Duration(c.config.ConnectTimeout) * time.Second)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetOnConnectHandler(c.onConnect)

	c.client = mqtt.NewClient(opts)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect error: %w", token.Error())
	}
	return nil
}

// Disconnect 断开连接
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
		c.log.Info("disconnected from broker")
	}
}

// IsConnected 检查是否已连接
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Publish 发布消息，retained 消息会被 broker 保留供新订阅者读取
func (c *Client) Publish(ctx context.Context, topic string, payload interface{}, retained bool) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := encodePayload(payload)
	if err != nil {
		return err
	}

	token := c.client.Publish(topic, c.config.QoS, retained, data)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("mqtt publish error: %w", token.Error())
		}
		return nil
	}
}

// encodePayload 编码消息体
func encodePayload(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("mqtt marshal payload error: %w", err)
		}
		return data, nil
	}
}

// onConnect 连接成功回调
func (c *Client) onConnect(_ mqtt.Client) {
	c.log.Info("connected to broker",
		zap.String("broker", c.config.Broker),
		zap.Int("port", c.config.Port),
	)
}

// onConnectionLost 连接断开回调
func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.log.Warn("connection lost", zap.Error(err))
}
