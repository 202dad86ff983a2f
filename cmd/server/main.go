package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/farm-admin/gateway"
	"github.com/jrsteele09/farm-admin/internal/config"
	"github.com/jrsteele09/farm-admin/internal/logging"
	"github.com/jrsteele09/farm-admin/internal/tracing"
	"github.com/jrsteele09/farm-admin/metrics"
	"github.com/jrsteele09/farm-admin/query"
	"github.com/jrsteele09/farm-admin/server"
	"github.com/jrsteele09/farm-admin/sessions"
	"github.com/jrsteele09/farm-admin/sessions/filerepo"
	"github.com/jrsteele09/farm-admin/sessions/memrepo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	if c.GetTracingEnabled() {
		tp, err := tracing.Init(context.Background(), c.GetAppName(), c.GetTracingEndpoint())
		if err != nil {
			return fmt.Errorf("tracing.Init: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("Tracer provider shutdown")
			}
		}()
	}

	repo, err := sessionRepo(c)
	if err != nil {
		return err
	}
	store := sessions.New(repo)
	if err := store.Init(); err != nil {
		return fmt.Errorf("store.Init: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	api := gateway.New(c.GetAPIBaseURL(), store,
		gateway.WithTimeout(c.GetRequestTimeout()),
		gateway.WithNavigator(server.Navigator{}),
		gateway.WithMetrics(m),
	)
	cache := query.New(query.WithMetrics(m))

	handler, err := server.New(c, store, cache, server.NewClients(api), reg)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func sessionRepo(c config.Config) (sessions.Repo, error) {
	path := c.GetSessionFile()
	if path == config.InMemorySession {
		log.Info().Msg("Session kept in memory")
		return memrepo.New(), nil
	}
	key, err := filerepo.ParseKey(c.GetSessionKey())
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	log.Info().Str("file", path).Bool("sealed", key != nil).Msg("Session file")
	return filerepo.New(path, key), nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
