// Command formcollector serves the demo form, accepts name/email submissions
// and lists them back as JSON.
//
// @title          Form Collector API
// @version        1.0
// @description    Collects name/email submissions from an HTML form and lists them.
// @BasePath       /
// @schemes        http https
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-form-collector/docs"
	"github.com/tbourn/go-form-collector/internal/config"
	httpapi "github.com/tbourn/go-form-collector/internal/http"
	"github.com/tbourn/go-form-collector/internal/observability"
	"github.com/tbourn/go-form-collector/internal/repo"
	"github.com/tbourn/go-form-collector/internal/services"
	"github.com/tbourn/go-form-collector/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log.Logger = sysutil.NewLogger(os.Stdout, cfg.LogPretty, observability.ServiceName(cfg.OTEL))
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	store, closeStore, err := repo.Open(ctx, repo.Options{
		Backend:             cfg.Store.Backend,
		DBPath:              cfg.Store.DBPath,
		DatabaseURL:         cfg.Store.DatabaseURL,
		MongoURI:            cfg.Store.MongoURI,
		MongoDatabase:       cfg.Store.MongoDatabase,
		MongoCollection:     cfg.Store.MongoCollection,
		MongoConnectTimeout: cfg.Store.MongoConnectTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("store open failed")
	}

	intake := services.NewIntakeService(store, cfg.StrictValidation())

	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Fatal().Err(err).Msg("trusted proxies")
	}
	httpapi.RegisterRoutes(r, intake, cfg)

	srv := &http.Server{
		Addr:              sysutil.ListenAddr(cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Backend).
			Str("validation", cfg.ValidationMode).
			Str("version", version).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := closeStore(sctx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
