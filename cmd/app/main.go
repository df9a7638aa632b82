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

	"github.com/Domenick1991/ticketbari/api"
	"github.com/Domenick1991/ticketbari/config"
	"github.com/Domenick1991/ticketbari/internal/auth"
	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/bootstrap"
	"github.com/Domenick1991/ticketbari/internal/browser"
	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/kafka"
	"github.com/Domenick1991/ticketbari/internal/repository"
	"github.com/Domenick1991/ticketbari/internal/role"
	"github.com/Domenick1991/ticketbari/internal/session"
	"github.com/Domenick1991/ticketbari/internal/ticker"
	"github.com/Domenick1991/ticketbari/internal/upload"
)

var logger = loggo.GetLogger("ticketbari.app")

func fatalf(format string, args ...any) {
	logger.Criticalf(format, args...)
	os.Exit(1)
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if err := loggo.ConfigureLoggers(cfg.Log.Level); err != nil {
		fatalf("configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Browser.ListCacheTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	notifier := kafka.NewNotifier(producer, cfg.Kafka.EventsTopic, clock.WallClock, kafka.WithAttempts(cfg.Kafka.PublishAttempts))

	client, err := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout())
	if err != nil {
		fatalf("backend client: %v", err)
	}

	provider := auth.NewIdentityToolkit(auth.Config{
		APIKey:             cfg.Auth.APIKey,
		IdentityURL:        cfg.Auth.IdentityURL,
		TokenURL:           cfg.Auth.TokenURL,
		GoogleClientID:     cfg.Auth.GoogleClientID,
		GoogleClientSecret: cfg.Auth.GoogleClientSecret,
		GoogleRedirectURL:  cfg.Auth.GoogleRedirectURL,
		Clock:              clock.WallClock,
	})

	roles := role.NewResolver(client, redisCache,
		role.WithWait(cfg.Session.RoleWait()),
		role.WithTTL(cfg.Session.RoleCacheTTL()),
	)

	sessions := session.NewStore(repository.NewSessionRepository(pool), provider,
		session.WithTTL(cfg.Session.TTL()),
		session.WithLookupWait(cfg.Session.LookupWait()),
		session.WithEndHook(func(ctx context.Context, email string) {
			if err := roles.Invalidate(ctx, email); err != nil {
				logger.Warningf("dropping role of %s: %v", email, err)
			}
		}),
	)
	if err := sessions.Start(ctx); err != nil {
		fatalf("start sessions: %v", err)
	}
	defer sessions.Stop()

	clk := ticker.New(clock.WallClock, time.Second)
	renderer, err := api.NewRenderer(clk, cfg.HTTP.Location())
	if err != nil {
		fatalf("parse templates: %v", err)
	}

	router := api.NewRouter(api.Deps{
		Backend:      client,
		Store:        redisCache,
		Sessions:     sessions,
		Lookup:       sessions,
		Roles:        roles,
		RoleCache:    roles,
		Browser:      browser.NewService(client, redisCache, cfg.Browser.PageSize),
		Uploader:     upload.New(cfg.Upload.URL, cfg.Upload.APIKey),
		Notifier:     notifier,
		Clock:        clk,
		Renderer:     renderer,
		CookieName:   cfg.Session.CookieName,
		SessionTTL:   cfg.Session.TTL(),
		SecureCookie: cfg.HTTP.SecureCookie,
		Location:     cfg.HTTP.Location(),
	})

	err = bootstrap.Run(ctx, cfg, router,
		bootstrap.WithWorker(clk.Run),
		bootstrap.WithCheck("postgres", pool.Ping),
		bootstrap.WithCheck("redis", func(ctx context.Context) error {
			return redisCache.Client().Ping(ctx).Err()
		}),
		bootstrap.WithCheck("kafka", producer.CheckConnection),
	)
	if err != nil {
		fatalf("server error: %v", err)
	}
}
