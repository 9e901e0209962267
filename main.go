package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/MatthewTully/keyforge/internal/config"
	"github.com/MatthewTully/keyforge/internal/keygen"
	"github.com/MatthewTully/keyforge/internal/keystore"
	"github.com/MatthewTully/keyforge/internal/logger"
	"github.com/MatthewTully/keyforge/internal/metrics"
	"github.com/MatthewTully/keyforge/internal/server"
)

func main() {
	godotenv.Load()

	cfg, err := config.New(os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}
	entry := logger.Setup("keyforge", cfg.Debug, os.Stdout)
	cfg.Print(entry, nil)
	if err := cfg.Validate(); err != nil {
		entry.Fatal(err)
	}

	warning, err := checkPortString(cfg.Server.Port)
	if err != nil {
		entry.Fatal(err)
	}
	if warning != "" {
		entry.Warn(warning)
	}

	if err := run(cfg, entry); err != nil {
		entry.Fatal(err)
	}
}

func run(cfg *config.Config, entry *log.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		return err
	}

	handlerOpts := []keygen.Option{keygen.WithMaxAttempts(cfg.Keys.MaxAttempts)}
	h, err := keygen.NewNumberHandler(cfg.Keys.ByteLength, handlerOpts...)
	if err != nil {
		return err
	}

	store, err := keystore.New(cfg.Keystore.Capacity)
	if err != nil {
		return err
	}
	refresher, err := keystore.NewRefresher(store, keystore.RefresherConfig{
		Workers:         cfg.Keystore.Workers,
		RefreshInterval: cfg.Keystore.RefreshInterval,
		KeyByteLen:      cfg.Keys.ByteLength,
		Rounds:          cfg.Keys.Rounds,
		HandlerOptions:  handlerOpts,
		Logger:          entry.WithField("component", "refresher"),
	})
	if err != nil {
		return err
	}

	srv, err := server.NewServer(ctx, &server.Config{
		ServerName:         cfg.Server.Name,
		Port:               cfg.Server.Port,
		MaxConnectionLimit: uint(cfg.Server.MaxConnections),
		Rounds:             cfg.Keys.Rounds,
		Logger:             entry.WithField("component", "server"),
	}, store, keygen.NewLockedHandler(h))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metrics.Serve(ctx, cfg.Metrics.Address, registry)
	})
	g.Go(func() error {
		return refresher.Run(ctx)
	})
	g.Go(func() error {
		return srv.StartListening(ctx)
	})
	return g.Wait()
}
