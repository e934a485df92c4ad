package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclareQueues 声明持久化的队列，生产者和消费者都需要调用，谁先启动都不会丢消息
func DeclareQueues(ch *amqp.Channel, names ...string) error {
	for _, name := range names {
		_, err := ch.QueueDeclare(
			name,  // 队列名称
			true,  // 是否持久化
			false, // 是否自动删除
			false, // 是否独占
			false, // 是否不等待
			nil,   // 额外参数
		)
		if err != nil {
			return err
		}
	}
	return nil
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: timeout,
	}
}

// PublishJSON 将 v 序列化为 JSON 后发送到默认交换机上名为 queue 的队列
func (p *Publisher) PublishJSON(queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
