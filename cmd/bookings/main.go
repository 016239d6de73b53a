// Job - уведомления о записях
// Kafka (booking.confirmed / booking.canceled) -> очередь push-уведомлений
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/glkeru/barbershop/internal/config"
	"github.com/glkeru/barbershop/internal/external/kafka"
	rabbit "github.com/glkeru/barbershop/internal/external/rabbitmq"
	"github.com/glkeru/barbershop/internal/services"
	"go.uber.org/zap"
)

func main() {
	// config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	// log
	logger, err := cfg.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// kafka
	reader, err := kafka.NewBookingReader(cfg.Brokers(), cfg.KafkaBookingTopic)
	if err != nil {
		logger.Fatal("kafka", zap.Error(err))
	}
	defer reader.Close()

	// rabbitmq
	publisher, err := rabbit.NewRabbitPublisher(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		ev, raw, err := reader.GetNewMessage(ctx)
		if err != nil {
			if raw != nil {
				logger.Error("malformed booking event", zap.ByteString("value", raw), zap.Error(err))
				continue
			}
			if !errors.Is(err, context.Canceled) {
				logger.Error("kafka read", zap.Error(err))
			}
			return
		}
		n, ok := services.BookingNotification(ev)
		if !ok {
			logger.Debug("booking event skipped", zap.String("type", ev.Type))
			continue
		}
		err = publisher.Notify(ctx, n)
		if err != nil {
			logger.Error("enqueue notification",
				zap.String("booking", ev.BookingID.String()),
				zap.Error(err))
		}
	}
}
