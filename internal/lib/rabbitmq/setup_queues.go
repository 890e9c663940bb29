package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// ExchangeDeliveries — exchange, через который проходят все исходящие
// сообщения пользователю: контент дня и одноразовые коды.
const ExchangeDeliveries = "deliveries"

// Ключи маршрутизации.
const (
	RoutingKeyContent = "content"
	RoutingKeyOtp     = "otp"
)

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetDeliveryQueues возвращает очереди воркера-отправителя.
func GetDeliveryQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "delivery.content", RoutingKey: RoutingKeyContent},
		{QueueName: "delivery.otp", RoutingKey: RoutingKeyOtp},
	}
}

// SetupChannel открывает канал, объявляет exchange и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		ExchangeDeliveries,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			ExchangeDeliveries,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
