package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tracking/cmd"
	"tracking/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tracking: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configs, err := cmd.LoadConfig()
	if err != nil {
		return err
	}

	level := logger.ParseLevel(configs.LogLevel)
	baseLogger := logger.New(logger.Options{
		Service: "tracking",
		Level:   level,
		Format:  configs.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, configs, baseLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			baseLogger.Error().Err(err).Msg("closing connections")
		}
	}()

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(echoLevel(level))
	app.CreateHTTPServer().Register(e)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Hub().Run(gctx)
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)
		baseLogger.Info().Str("addr", addr).Str("store", configs.StoreDriver).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		baseLogger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func echoLevel(level zerolog.Level) log.Lvl {
	switch {
	case level <= zerolog.DebugLevel:
		return log.DEBUG
	case level == zerolog.InfoLevel:
		return log.INFO
	case level == zerolog.WarnLevel:
		return log.WARN
	case level >= zerolog.ErrorLevel && level < zerolog.Disabled:
		return log.ERROR
	}
	return log.OFF
}
