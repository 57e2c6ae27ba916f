package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jboverfelt/activetrack/garmin"
	"github.com/jboverfelt/activetrack/store"
	"github.com/jboverfelt/activetrack/syncer"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

// garminLogin adapts a garmin.Client to syncer.LoginFunc
func garminLogin(c *garmin.Client) syncer.LoginFunc {
	return func(ctx context.Context) (syncer.Session, error) {
		sess, err := c.Login(ctx)
		if err != nil {
			return nil, err
		}

		return sess, nil
	}
}

func storedCount(s store.Store) func() float64 {
	return func() float64 {
		snaps, err := s.List(context.Background(), 0)
		if err != nil {
			return 0
		}

		return float64(len(snaps))
	}
}

func main() {
	configPath := flag.String("config", "config.json", "path to an optional JSON config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Could not read .env file: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	logFile, err := setupLogging(cfg.Log)
	if err != nil {
		log.Fatalf("Could not set up logging: %v", err)
	}
	defer logFile.Close()

	db, err := store.Open(cfg.Store)
	if err != nil {
		log.Fatalf("Could not open snapshot store: %v", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	metrics := newMetricsProvider(reg, storedCount(db))

	client := garmin.New(garmin.Config{
		Email:        cfg.Garmin.Email,
		Password:     cfg.Garmin.Password,
		BaseURL:      cfg.Garmin.BaseURL,
		TokenURL:     cfg.Garmin.TokenURL,
		ClientID:     cfg.Garmin.ClientID,
		ClientSecret: cfg.Garmin.ClientSecret,
	})
	if cfg.Garmin.Email == "" || cfg.Garmin.Password == "" {
		log.Warn("GARMIN_EMAIL or GARMIN_PASSWORD is not set, fetches will fail")
	}

	runner := syncer.New(garminLogin(client), db,
		syncer.WithActivityLimit(cfg.ActivityLimit),
		syncer.WithLocation(cfg.Location()),
		syncer.WithMetrics(metrics),
	)

	notifier, err := newNotifier(cfg.Mail)
	if err != nil {
		log.Fatalf("Could not set up report mail: %v", err)
	}

	tmpl, err := parsePageTemplates()
	if err != nil {
		log.Fatalf("Could not load templates: %v", err)
	}

	c := cron.NewWithLocation(cfg.Location())
	env := &Env{
		DB:       db,
		Sync:     runner,
		Notifier: notifier,
		Cron:     c,
		Tmpl:     tmpl,
		Started:  time.Now(),
	}

	if err := setupCron(c, cfg.CronSchedule, env); err != nil {
		log.Fatalf("Could not schedule nightly sync: %v", err)
	}
	c.Start()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newRouter(env, reg, metrics),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Started running on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		log.WithError(err).Error("server error")
	}

	c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}

	log.Info("gracefully stopped")
}
