package main

import (
	"context"
	"html/template"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jboverfelt/activetrack/garmin"
	"github.com/jboverfelt/activetrack/models"
	"github.com/jboverfelt/activetrack/store"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

// Error represents a handler error. It provides methods for a HTTP status
// code and embeds the built-in error interface.
type Error interface {
	error
	Status() int
}

// StatusError represents an error with an associated HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

// Allows StatusError to satisfy the error interface.
func (se StatusError) Error() string {
	return se.Err.Error()
}

// Status returns our HTTP status code.
func (se StatusError) Status() int {
	return se.Code
}

func (se StatusError) Unwrap() error {
	return se.Err
}

// syncService is the part of syncer.Syncer the handlers use
type syncService interface {
	Today() string
	Yesterday() string
	Overview(ctx context.Context, date string) (models.Snapshot, error)
	SyncDay(ctx context.Context, date string) (models.Snapshot, error)
	Backfill(ctx context.Context, days int) ([]string, error)
}

// Env represents handler dependencies
type Env struct {
	DB       store.Store
	Sync     syncService
	Notifier Notifier
	Cron     *cron.Cron
	Tmpl     *template.Template
	Started  time.Time
}

// Handler represents an HTTP handler that can return errors
// and access dependencies in a type-safe way
type Handler struct {
	*Env
	h func(e *Env, w http.ResponseWriter, r *http.Request) error
}

// NewHandler allocates a new handler
func NewHandler(e *Env, handlerFunc func(e *Env, w http.ResponseWriter, r *http.Request) error) Handler {
	return Handler{e, handlerFunc}
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.h(h.Env, w, r)
	if err != nil {
		status := statusCode(err)
		log.Printf("HTTP %d - %s %s: %s", status, r.Method, r.URL.Path, err)
		writeJSON(w, status, errorResponse{Status: "error", Error: err.Error()})
	}
}

func statusCode(err error) int {
	var e Error
	switch {
	case errors.As(err, &e):
		return e.Status()
	case garmin.IsRateLimited(err):
		return http.StatusTooManyRequests
	case errors.Is(err, garmin.ErrAuthentication):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(b)

	return err
}
