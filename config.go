package main

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jboverfelt/activetrack/store"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type config struct {
	Addr          string `validate:"required"`
	CronSchedule  string `validate:"required"`
	Timezone      string `validate:"required"`
	ActivityLimit int    `validate:"min=1,max=100"`

	Store  store.Config
	Garmin garminConfig
	Log    logConfig
	Mail   mailConfig

	location *time.Location
}

type garminConfig struct {
	Email        string
	Password     string
	BaseURL      string `validate:"omitempty,url"`
	TokenURL     string `validate:"omitempty,url"`
	ClientID     string
	ClientSecret string
}

type logConfig struct {
	Level string `validate:"required"`
	File  string
}

type mailConfig struct {
	Domain    string
	APIKey    string
	PublicKey string
	To        string `validate:"omitempty,email"`
}

// Enabled reports whether report mail has everything it needs
func (m mailConfig) Enabled() bool {
	return m.Domain != "" && m.APIKey != "" && m.To != ""
}

// Location returns the timezone calendar days are computed in
func (c *config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}

	return c.location
}

var envBindings = map[string]string{
	"garmin.email":         "GARMIN_EMAIL",
	"garmin.password":      "GARMIN_PASSWORD",
	"garmin.base_url":      "GARMIN_BASE_URL",
	"garmin.token_url":     "GARMIN_TOKEN_URL",
	"garmin.client_id":     "GARMIN_CLIENT_ID",
	"garmin.client_secret": "GARMIN_CLIENT_SECRET",
	"store.path":           "ACTIVETRACK_DB_PATH",
	"store.driver":         "ACTIVETRACK_STORE",
	"timezone":             "ACTIVETRACK_TZ",
	"cron_schedule":        "ACTIVETRACK_CRON",
	"addr":                 "ACTIVETRACK_ADDR",
	"activity_limit":       "ACTIVETRACK_ACTIVITY_LIMIT",
	"log.level":            "LOG_LEVEL",
	"log.file":             "LOG_FILE",
	"mail.domain":          "MAILGUN_DOMAIN",
	"mail.api_key":         "MAILGUN_API_KEY",
	"mail.public_key":      "MAILGUN_PUBLIC_KEY",
	"mail.to":              "REPORT_EMAIL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("cron_schedule", "0 0 2 * * *")
	v.SetDefault("timezone", "Local")
	v.SetDefault("activity_limit", 20)
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.path", "data/activetrack.db")
	v.SetDefault("log.level", "info")
}

// loadConfig reads the optional JSON file at path, then the environment.
// Environment variables win over the file.
func loadConfig(path string) (*config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "error reading config file %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "could not open config file %s", path)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "could not bind %s", env)
		}
	}

	cfg := &config{
		Addr:          v.GetString("addr"),
		CronSchedule:  v.GetString("cron_schedule"),
		Timezone:      v.GetString("timezone"),
		ActivityLimit: v.GetInt("activity_limit"),
		Store: store.Config{
			Driver: v.GetString("store.driver"),
			Path:   v.GetString("store.path"),
		},
		Garmin: garminConfig{
			Email:        v.GetString("garmin.email"),
			Password:     v.GetString("garmin.password"),
			BaseURL:      v.GetString("garmin.base_url"),
			TokenURL:     v.GetString("garmin.token_url"),
			ClientID:     v.GetString("garmin.client_id"),
			ClientSecret: v.GetString("garmin.client_secret"),
		},
		Log: logConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Mail: mailConfig{
			Domain:    v.GetString("mail.domain"),
			APIKey:    v.GetString("mail.api_key"),
			PublicKey: v.GetString("mail.public_key"),
			To:        v.GetString("mail.to"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown timezone %q", cfg.Timezone)
	}
	cfg.location = loc

	return cfg, nil
}
