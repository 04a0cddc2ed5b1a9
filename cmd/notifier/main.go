package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/leomorpho/bonfire-sub000/internal/config"
	"github.com/leomorpho/bonfire-sub000/internal/logger"
	"github.com/leomorpho/bonfire-sub000/internal/model"
	"github.com/leomorpho/bonfire-sub000/internal/notify"
	"github.com/leomorpho/bonfire-sub000/internal/sender"
	"github.com/leomorpho/bonfire-sub000/internal/store"
	httptransport "github.com/leomorpho/bonfire-sub000/internal/transport/http"
)

func main() {
	// 1. load config
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	// 3. postgres
	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gdb.AutoMigrate(
		&model.QueueEntry{}, &model.Notification{}, &model.PermissionSetting{},
		&model.TaskLock{}, &model.DeliveryAudit{}, &model.UnsubscribeToken{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// 4. redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// 5. kafka writer for the push relay topic
	kw := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.PushTopic,
		Balancer: &kafka.LeastBytes{},
	}

	// 6. store, senders, engine
	st := store.New(gdb, rdb, log)
	push := sender.NewKafkaPushSender(kw, cfg.RateLimit.PushRPS, cfg.RateLimit.PushBurst, log)
	sms := sender.NewTwilioSMSSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, st, log)
	email := sender.NewSendgridEmailSender(cfg.Sendgrid.APIKey, cfg.Sendgrid.FromEmail, cfg.Sendgrid.FromName, st, log)

	engine := notify.New(st, push, sms, email, log, notify.Options{
		BatchSize:      cfg.Notifier.BatchSize,
		SendTimeout:    cfg.Notifier.SendTimeout.Std(),
		DeliverOnMerge: cfg.Notifier.DeliverOnMergeEnabled(),
		PublicBaseURL:  cfg.Notifier.PublicBaseURL,
		ReminderLead:   cfg.Notifier.ReminderLead.Std(),
	}, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 7. scheduler loops
	go runLoop(ctx, cfg.Notifier.DrainInterval.Std(), func() {
		if err := engine.RunQueueDrainPass(ctx); err != nil {
			log.Errorf("queue drain pass: %v", err)
		}
	})
	go runLoop(ctx, cfg.Notifier.ReminderInterval.Std(), func() {
		if err := engine.RunReminderPass(ctx); err != nil {
			log.Errorf("reminder pass: %v", err)
		}
	})

	// 8. admin surface
	router := httptransport.NewRouter(engine, st, cfg.RateLimit, log)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: router}
	go func() {
		log.Infof("notifier listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown: %v", err)
	}
	// A killed replica must not leave its locks wedged.
	engine.ForceUnlockAll(shutdownCtx)
}

func runLoop(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
