// Job - доставка push-уведомлений
// RabbitMQ -> устройства пользователя -> push-шлюз
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/glkeru/barbershop/internal/config"
	db "github.com/glkeru/barbershop/internal/db"
	"github.com/glkeru/barbershop/internal/external/push"
	rabbit "github.com/glkeru/barbershop/internal/external/rabbitmq"
	"github.com/glkeru/barbershop/internal/services"
	amqp "github.com/rabbitmq/amqp091-go"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := max(cfg.NotifyWorkers, 1)

	// rabbitmq
	reader, err := rabbit.NewRabbitConsumer(cfg.RabbitURL, workers)
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
	}
	defer reader.Close()

	// database
	storage, err := db.NewDB(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer storage.Close()

	serv := services.NewNotificationService(logger, storage, push.NewClient(cfg.PushURL, cfg.PushAPIKey))

	// workers
	wg := &sync.WaitGroup{}
	wg.Add(workers)
	for range workers {
		go worker(ctx, serv, wg, logger, reader)
	}
	wg.Wait()
}

// worker for rabbitmq messages
func worker(ctx context.Context, serv *services.NotificationService, wg *sync.WaitGroup, logger *zap.Logger, reader *rabbit.RabbitConsumer) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-reader.Msg:
			if !ok {
				return
			}
			handle(ctx, serv, logger, msg)
		}
	}
}

func handle(ctx context.Context, serv *services.NotificationService, logger *zap.Logger, msg amqp.Delivery) {
	n, err := rabbit.Decode(msg)
	if err != nil {
		// битое сообщение не возвращаем в очередь
		logger.Error("decode notification", zap.ByteString("body", msg.Body), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	sent, err := serv.Deliver(ctx, n)
	if err != nil {
		logger.Error("deliver notification", zap.String("user", n.UserID), zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}
	logger.Debug("notification delivered", zap.String("user", n.UserID), zap.Int("devices", sent))
	_ = msg.Ack(false)
}
