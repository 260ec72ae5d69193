package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/minhle/portfolio/internal/assets"
	"github.com/minhle/portfolio/internal/config"
	logpkg "github.com/minhle/portfolio/internal/log"
	"github.com/minhle/portfolio/internal/server"
	"github.com/minhle/portfolio/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", envOr("CONFIG", "config.json"), "path to site config file")
		addr       = flag.String("addr", envOr("ADDR", ""), "listen address, overrides -port")
		port       = flag.String("port", envOr("PORT", "8080"), "listen port")
		logLevel   = flag.String("log-level", envOr("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
		logFormat  = flag.String("log-format", envOr("LOG_FORMAT", "text"), "log format: text or json")
		dev        = flag.Bool("dev", os.Getenv("DEV") == "1", "serve assets from disk instead of the embedded bundle")
		webDir     = flag.String("web", envOr("WEB_DIR", "web"), "asset directory used in dev mode")
	)
	flag.Parse()

	logger := logpkg.New(*logLevel, *logFormat)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	emailCfg, err := config.LoadEmail()
	if err != nil {
		return fmt.Errorf("load email config: %w", err)
	}
	if err := emailCfg.Validate(); err != nil {
		return fmt.Errorf("email config: %w", err)
	}
	if !emailCfg.Configured() {
		logger.Warn("email provider not configured, contact form will report unavailable")
	}

	var src *assets.Source
	if *dev {
		src, err = assets.NewDisk(*webDir)
	} else {
		src, err = assets.NewEmbedded(web.FS)
	}
	if err != nil {
		return fmt.Errorf("asset source: %w", err)
	}

	if err := cfg.Validate(src.PageExists); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	srv, err := server.New(cfg, emailCfg, src, logger, *dev)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = ":" + *port
	}

	httpSrv := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)

	go func() {
		logger.Info("server listening",
			"addr", listenAddr,
			"assets", src.Kind(),
			"config", cfg.Source(),
			"email_configured", emailCfg.Configured(),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
			return
		}
		done <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-done
	case err := <-done:
		return err
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
