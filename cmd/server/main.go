package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-ticketing/internal/booking"
	"github.com/iliyamo/theater-seat-ticketing/internal/config"
	"github.com/iliyamo/theater-seat-ticketing/internal/database"
	"github.com/iliyamo/theater-seat-ticketing/internal/handler"
	"github.com/iliyamo/theater-seat-ticketing/internal/inventory"
	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
	"github.com/iliyamo/theater-seat-ticketing/internal/queue"
	"github.com/iliyamo/theater-seat-ticketing/internal/repository"
	"github.com/iliyamo/theater-seat-ticketing/internal/reservation"
	"github.com/iliyamo/theater-seat-ticketing/internal/router"
	"github.com/iliyamo/theater-seat-ticketing/internal/ticket"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment may be set already
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.IsDev())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, ping, closeStore := openStore(ctx, cfg)
	defer closeStore()

	codec, err := ticket.NewCodec([]byte(cfg.TicketSecret))
	if err != nil {
		log.WithError(err).Fatal("ticket codec")
	}
	inv := inventory.New(store)
	holds := reservation.NewService(inv, cfg.HoldTTL, cfg.HoldTTLMax)

	notifyCfg := config.LoadNotifyConfig()
	var notifier booking.Notifier
	if notifyCfg.URL != "" {
		pub := queue.NewPublisher(notifyCfg)
		defer func() { _ = pub.Close() }()
		notifier = pub
		if notifyCfg.ConsumerEnabled {
			consumer := queue.NewConsumer(notifyCfg.URL, notifyCfg.Queue, codec, queue.NewLogMailer(notifyCfg.TicketLogPath))
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("ticket consumer stopped")
				}
			}()
		}
	} else {
		log.Warn("RABBITMQ_URL not set; tickets will not be delivered")
	}
	fin := booking.NewFinalizer(inv, codec, booking.NewReferenceGenerator(cfg.RefPrefix), notifier,
		booking.WithNotifyTimeout(notifyCfg.Timeout))

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable; rate limiting and inventory cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	e := router.New(router.Deps{
		Handler:   handler.New(inv, holds, fin, codec, cfg.JWTSecret, cfg.SessionTTL),
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Ping:      ping,
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// openStore selects the store backend from STORE_DRIVER.  It returns the
// store, a readiness ping (nil for memory) and a cleanup function.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(context.Context) error, func()) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil, func() {}
	}
	db, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if cfg.DBAutoMigrate {
		if err := database.InitSchema(ctx, db); err != nil {
			log.WithError(err).Fatal("schema bootstrap failed")
		}
		log.Info("schema applied")
	}
	return repository.NewMySQLStore(db), db.PingContext, func() { _ = db.Close() }
}
