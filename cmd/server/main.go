// HTTP API и gRPC health для мобильного приложения
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glkeru/barbershop/internal/api"
	healthsrv "github.com/glkeru/barbershop/internal/api/grpc"
	"github.com/glkeru/barbershop/internal/config"
	db "github.com/glkeru/barbershop/internal/db"
	"github.com/glkeru/barbershop/internal/db/memory"
	"github.com/glkeru/barbershop/internal/external/kafka"
	"github.com/glkeru/barbershop/internal/external/rabbitmq"
	"github.com/glkeru/barbershop/internal/external/timify"
	interf "github.com/glkeru/barbershop/internal/interfaces"
	"github.com/glkeru/barbershop/internal/qrcode"
	"github.com/glkeru/barbershop/internal/services"
	"github.com/glkeru/barbershop/observability/otel"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type storage interface {
	interf.LegacyStorage
	interf.LoyaltyStorage
	interf.BookingStorage
	interf.DeviceStorage
}

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

	shutdownTracer, err := otel.InitTracer(ctx, logger, "barbershop-api", cfg.OTelEndpoint)
	if err != nil {
		logger.Fatal("tracer", zap.Error(err))
	}
	defer shutdownTracer()

	// database
	var (
		store storage
		probe healthsrv.Probe
	)
	mem := memory.New()
	switch cfg.StorageDriver {
	case "postgres":
		pg, err := db.NewDB(ctx, logger, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer pg.Close()
		if err = pg.Migrate(ctx); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		store, probe = pg, pg.Ping
	default:
		logger.Warn("in-memory storage, data is lost on restart")
		store = mem
	}

	// rewards
	var rewards interf.RewardStorage = mem
	if cfg.MongoURI != "" {
		mgo, err := db.NewRewardsDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.Fatal("mongo", zap.Error(err))
		}
		defer mgo.Close(context.Background())
		rewards = mgo
	} else {
		logger.Warn("MONGO_URI is not set, reward catalog kept in memory")
	}

	// cache
	var cache interf.CacheStorage
	redis, err := db.NewCacheService(ctx, cfg.RedisAddr, cfg.RedisUser, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis, names are not cached", zap.Error(err))
	} else {
		defer redis.Close()
		cache = redis
	}

	// rabbitmq
	var notifier interf.Notifier
	rabbit, err := rabbitmq.NewRabbitPublisher(cfg.RabbitURL)
	if err != nil {
		logger.Error("rabbitmq, pushes are disabled", zap.Error(err))
	} else {
		defer rabbit.Close()
		notifier = rabbit
	}

	// kafka
	var publisher interf.EventPublisher
	writer, err := kafka.NewBookingWriter(cfg.Brokers(), cfg.KafkaBookingTopic)
	if err != nil {
		logger.Error("kafka, booking events are not published", zap.Error(err))
	} else {
		defer writer.Close()
		publisher = writer
	}

	provider := timify.NewClient(logger, timify.Options{
		BaseURL:    cfg.TimifyBaseURL,
		Timeout:    cfg.TimifyTimeout,
		MaxRetries: cfg.TimifyMaxRetries,
		Backoff:    cfg.TimifyBackoff,
	})

	// services
	hasher := qrcode.NewHasher(cfg.QRTokenPepper)
	legacy := services.NewLegacyService(logger, store, hasher, cfg.LoyaltyTarget, cfg.LoyaltyQRTTL())
	loyalty := services.NewLoyaltyService(logger, store, rewards, notifier, hasher, services.LoyaltyOptions{
		EarnTTL:             cfg.EarnQRTTL(),
		VoucherTTL:          cfg.VoucherQRTTL(),
		NearRewardThreshold: cfg.NearRewardThreshold,
	})
	dispatcher := services.NewDispatcher(logger)
	dispatcher.Subscribe(legacy.OnBookingConfirmed)
	bookings := services.NewBookingService(logger, store, provider, cache, publisher, dispatcher, services.BookingOptions{
		CancelCutoff: cfg.CancelCutoff(),
		LocalCancel:  cfg.EnableLocalCancel,
		Region:       cfg.TimifyRegion,
	})
	notifications := services.NewNotificationService(logger, store, nil)

	// api handlers
	h := api.NewHandler(logger, api.Services{
		Legacy:        legacy,
		Loyalty:       loyalty,
		Bookings:      bookings,
		Notifications: notifications,
	}, api.Options{
		JWTSecret:     cfg.JWTSecret,
		AdminScanRate: cfg.AdminScanRate,
		Production:    cfg.Production(),
	})
	srv := &http.Server{
		Handler:      otelhttp.NewHandler(h, "barbershop-api"),
		Addr:         ":" + cfg.HTTPPort,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal("grpc listen", zap.Error(err))
	}
	health := healthsrv.NewHealthServer(logger, probe, 10*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc server started", zap.String("port", cfg.GRPCPort))
		return health.Serve(lis)
	})
	g.Go(func() error {
		health.Run(gctx)
		return nil
	})

	// shutdown
	g.Go(func() error {
		<-gctx.Done()
		timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		health.Stop()
		return srv.Shutdown(timeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
