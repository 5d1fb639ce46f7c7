package events

import (
	"context"
)

// mqttClient MQTT 发布能力
type mqttClient interface {
	Publish(ctx context.Context, topic string, payload interface{}, retained bool) error
}

// MQTTPublisher 通过 MQTT 推送房态，仅处理房态事件
type MQTTPublisher struct {
	NopPublisher
	client   mqttClient
	prefix   string
	retained bool
}

// NewMQTTPublisher 创建 MQTT 事件发布器
func NewMQTTPublisher(client mqttClient, prefix string, retained bool) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, retained: retained}
}

// PublishOccupancy 推送到 {prefix}property/{id}/occupancy
func (p *MQTTPublisher) PublishOccupancy(ctx context.Context, evt OccupancyChanged) error {
	return p.client.Publish(ctx, OccupancyTopic(p.prefix, evt.PropertyID), evt, p.retained)
}

// amqpPublisher RabbitMQ 发布能力
type amqpPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AMQPPublisher 通过 RabbitMQ 投递预订与支付事件
type AMQPPublisher struct {
	publisher amqpPublisher
}

// NewAMQPPublisher 创建 RabbitMQ 事件发布器
func NewAMQPPublisher(publisher amqpPublisher) *AMQPPublisher {
	return &AMQPPublisher{publisher: publisher}
}

// PublishOccupancy 房态事件路由键为 property.occupancy
func (p *AMQPPublisher) PublishOccupancy(ctx context.Context, evt OccupancyChanged) error {
	return p.publisher.Publish(ctx, "property.occupancy", evt)
}

// PublishReservation 路由键 reservation.<status>
func (p *AMQPPublisher) PublishReservation(ctx context.Context, evt ReservationChanged) error {
	return p.publisher.Publish(ctx, ReservationRoutingKey(evt.Status), evt)
}

// PublishPayment 路由键 payment.<status>
func (p *AMQPPublisher) PublishPayment(ctx context.Context, evt PaymentChanged) error {
	return p.publisher.Publish(ctx, PaymentRoutingKey(evt.Status), evt)
}
