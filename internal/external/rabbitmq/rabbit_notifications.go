package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	model "github.com/glkeru/barbershop/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const queue = "notifications"

func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	if url == "" {
		return nil, nil, errors.New("rabbit url is not set")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	err = declare(ch)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

// Публикация push-уведомлений в очередь
type RabbitPublisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

func (r *RabbitPublisher) Notify(ctx context.Context, n model.Notification) error {
	msg, err := json.Marshal(n)
	if err != nil {
		return err
	}

	// канал не потокобезопасен
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.PublishWithContext(ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         msg,
		})
}

func (r *RabbitPublisher) Close() {
	r.ch.Close()
	r.conn.Close()
}

// Чтение очереди уведомлений
type RabbitConsumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	Msg  <-chan amqp.Delivery
}

func NewRabbitConsumer(url string, prefetch int) (*RabbitConsumer, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}
	err = ch.Qos(prefetch, 0, false)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	msg, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RabbitConsumer{conn, ch, msg}, nil
}

// Decode reads a notification from a delivery.
func Decode(d amqp.Delivery) (model.Notification, error) {
	var n model.Notification
	err := json.Unmarshal(d.Body, &n)
	return n, err
}

func (r *RabbitConsumer) Close() {
	r.ch.Close()
	r.conn.Close()
}
