package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/clock"
	"github.com/juju/loggo/v2"

	"github.com/Domenick1991/ticketbari/config"
	"github.com/Domenick1991/ticketbari/internal/auth"
	"github.com/Domenick1991/ticketbari/internal/email"
	"github.com/Domenick1991/ticketbari/internal/kafka"
	"github.com/Domenick1991/ticketbari/internal/repository"
	"github.com/Domenick1991/ticketbari/internal/session"
)

var logger = loggo.GetLogger("ticketbari.worker")

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Criticalf("load config: %v", err)
		os.Exit(1)
	}
	if err := loggo.ConfigureLoggers(cfg.Log.Level); err != nil {
		logger.Criticalf("configure logging: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Criticalf("connect postgres: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The worker only sweeps sessions; it never signs anyone in.
	sessions := session.NewStore(repository.NewSessionRepository(pool), auth.NewIdentityToolkit(auth.Config{APIKey: cfg.Auth.APIKey}))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.EventsTopic)
	defer consumer.Close()

	sender := email.NewSender(email.LogTransport{})

	go func() {
		if err := consumer.Consume(ctx, kafka.Events(sender.Send)); err != nil && ctx.Err() == nil {
			logger.Errorf("consumer stopped: %v", err)
		}
	}()

	interval := time.Duration(cfg.Worker.ExpiredSessionSweepMinutes) * time.Minute
	for {
		select {
		case <-clock.WallClock.After(interval):
			n, err := sessions.Sweep(ctx)
			if err != nil {
				logger.Errorf("sweeping sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("deleted %d expired sessions", n)
			}
		case <-ctx.Done():
			logger.Infof("shutting down")
			return
		}
	}
}
