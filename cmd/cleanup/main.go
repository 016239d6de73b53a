// Job - удаление просроченных неиспользованных QR-токенов и броней
package main

import (
	"context"
	"time"

	"github.com/glkeru/barbershop/internal/config"
	db "github.com/glkeru/barbershop/internal/db"
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// database
	storage, err := db.NewDB(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer storage.Close()

	before := time.Now().Add(-cfg.CleanupRetention())
	n, err := storage.PurgeExpired(ctx, before)
	if err != nil {
		logger.Fatal("purge", zap.Error(err))
	}
	logger.Info("cleanup done", zap.Int64("deleted", n), zap.Time("before", before))
}
