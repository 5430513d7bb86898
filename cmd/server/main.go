// Command server hosts games over HTTP: JSON endpoints for selections and
// turns plus a websocket stream per game.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bjacotg/pompei/internal/httpx"
	"github.com/bjacotg/pompei/internal/player"
)

func main() {
	// Flags (env fallbacks).
	addr := flag.String("addr", getenv("POMPEI_ADDR", ":8080"), "listen address")
	level := flag.String("log-level", getenv("POMPEI_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	dev := flag.Bool("dev", getenb("POMPEI_DEV", false), "human readable development logs")
	maxSessions := flag.Int("max-sessions", getenvInt("POMPEI_MAX_SESSIONS", 64), "maximum number of concurrent games")
	eval := flag.String("eval", getenv("POMPEI_EVAL", ""), "default greedy evaluator expression (empty: elevation)")
	flag.Parse()

	logger, err := newLogger(*level, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if *eval != "" {
		if _, err := player.CompileEvaluator(*eval); err != nil {
			logger.Fatal("invalid evaluator", zap.Error(err))
		}
	}

	srv := httpx.NewServer(httpx.Config{MaxSessions: *maxSessions, DefaultEval: *eval}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(*addr) }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Fatal("http server", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Close(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
		<-errc
	}
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
