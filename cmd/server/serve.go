package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/warmersun/warmersun-api/internal/config"
	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/handler"
	"github.com/warmersun/warmersun-api/internal/queue"
	"github.com/warmersun/warmersun-api/internal/repository"
	"github.com/warmersun/warmersun-api/internal/router"
	"github.com/warmersun/warmersun-api/internal/service"
	"github.com/warmersun/warmersun-api/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	var rdb *redis.Client
	if cacheCfg.Enabled || rlCfg.Enabled {
		rdb = config.NewRedisClient(config.LoadRedisConfig())
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var events handler.EventPublisher
	if cfg.EventsEnabled {
		events = service.NewPublisher(cfg.AMQPURL)
		consumer := queue.Consumer{URL: cfg.AMQPURL, LogDir: cfg.EventsLogDir}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("points-consumer: stopped: %v", err)
			}
		}()
	}

	h := handler.New(handler.Repos{
		Parks:      repository.NewParkRepo(db),
		Spots:      repository.NewSpotRepo(db),
		Actions:    repository.NewActionRepo(db),
		Categories: repository.NewCategoryRepo(db),
		Users:      repository.NewUserRepo(db),
		Items:      repository.NewShoppingItemRepo(db),
		Images:     repository.NewImageRepo(db),
	}, utils.PasswordHasher{Salt: cfg.PasswordSalt, Iterations: cfg.PasswordIterations}, cfg.MaxUploadBytes, events)

	e := router.New(h, router.Options{
		Redis:           rdb,
		Cache:           cacheCfg,
		RateLimit:       rlCfg,
		AuthoritySecret: cfg.AuthoritySecret,
	})
	if cfg.AuthoritySecret == "" {
		log.Printf("server: AUTHORITY_JWT_SECRET not set, verify routes are open")
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, db.Dialect)
	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
