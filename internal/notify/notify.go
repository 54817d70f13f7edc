package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher 把邮件投递到 rabbitmq 队列，由 cmd/mail 消费
type AMQPPublisher struct {
	ch      *amqp.Channel
	queue   string
	timeout time.Duration
}

func NewAMQPPublisher(ch *amqp.Channel, queue string, timeout time.Duration) *AMQPPublisher {
	return &AMQPPublisher{
		ch:      ch,
		queue:   queue,
		timeout: timeout,
	}
}

// DeclareQueue 声明持久化的邮件队列，生产者和消费者都需要调用
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	)
	return err
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg *domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// LogPublisher 在没有配置 rabbitmq 时使用，只记录日志
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, msg *domain.MailMessage) error {
	p.logger.Info("未配置邮件队列，跳过发送邮件", "type", msg.Type, "to", msg.To)
	return nil
}

// MemoryPublisher 把邮件保存在内存中
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []*domain.MailMessage
	Err      error
}

func (p *MemoryPublisher) Publish(ctx context.Context, msg *domain.MailMessage) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *MemoryPublisher) Messages() []*domain.MailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.MailMessage(nil), p.messages...)
}
