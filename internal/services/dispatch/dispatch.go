// Package dispatch публикует сообщения планировщика и кодов входа в очередь
// для воркера-отправителя.
package dispatch

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/microlearn/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/microlearn/internal/models"
)

// QueuePublisher публикует сообщения в обменник доставки. Публикация
// синхронная: ошибка публикации означает неудачную отправку, запись
// остаётся в очереди планировщика.
type QueuePublisher struct {
	ch *amqp.Channel
}

// New создает новый экземпляр QueuePublisher.
func New(ch *amqp.Channel) *QueuePublisher {
	return &QueuePublisher{ch: ch}
}

// Dispatch публикует контент дня для воркера-отправителя.
func (p *QueuePublisher) Dispatch(ctx context.Context, msg models.DeliveryMessage) error {
	const op = "dispatch.Dispatch"

	if err := p.publish(ctx, rabbitmq.RoutingKeyContent, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendOtp публикует одноразовый код для воркера-отправителя.
func (p *QueuePublisher) SendOtp(ctx context.Context, msg models.OtpMessage) error {
	const op = "dispatch.SendOtp"

	if err := p.publish(ctx, rabbitmq.RoutingKeyOtp, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// publish выполняет публикацию с уважением дедлайна контекста: сама
// библиотека дедлайн не принимает, поэтому публикация выполняется в
// отдельной горутине.
func (p *QueuePublisher) publish(ctx context.Context, routingKey string, payload any) error {
	done := make(chan error, 1)
	go func() {
		done <- rabbitmq.PublishMessage(p.ch, rabbitmq.ExchangeDeliveries, routingKey, payload)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
