package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	model "github.com/glkeru/barbershop/internal/models"
	"github.com/segmentio/kafka-go"
)

const (
	groupID = "bookings_notifications"
	// публикация синхронная, после коммита брони
	batchTimeout = 10 * time.Millisecond
)

// События бронирований, ключ - пользователь
type BookingWriter struct {
	writer *kafka.Writer
}

func NewBookingWriter(brokers []string, topic string) (*BookingWriter, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not set")
	}
	return &BookingWriter{&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (k *BookingWriter) PublishBooking(ctx context.Context, ev model.BookingEvent) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: msg,
	})
}

func (k *BookingWriter) Close() error {
	return k.writer.Close()
}

type BookingReader struct {
	reader *kafka.Reader
}

func NewBookingReader(brokers []string, topic string) (*BookingReader, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not set")
	}
	return &BookingReader{kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})}, nil
}

// GetNewMessage blocks until the next event. A malformed message is returned
// as an error together with its raw value.
func (k *BookingReader) GetNewMessage(ctx context.Context) (model.BookingEvent, []byte, error) {
	msg, err := k.reader.ReadMessage(ctx)
	if err != nil {
		return model.BookingEvent{}, nil, err
	}
	var ev model.BookingEvent
	err = json.Unmarshal(msg.Value, &ev)
	return ev, msg.Value, err
}

func (k *BookingReader) Close() error {
	return k.reader.Close()
}
