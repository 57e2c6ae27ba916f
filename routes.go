package main

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jboverfelt/activetrack/models"
	"github.com/jboverfelt/activetrack/store"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

const (
	indexSnapshotLimit = 7
	defaultSeedDays    = 7
	maxSeedDays        = 31
)

func newRouter(e *Env, reg *prometheus.Registry, m requestMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", NewHandler(e, index))
	mux.Handle("GET /health", NewHandler(e, health))
	mux.Handle("POST /sync", NewHandler(e, syncDay))
	mux.Handle("POST /seed-week", NewHandler(e, seedWeek))
	mux.Handle("DELETE /snapshots", NewHandler(e, deleteSnapshots))
	mux.Handle("GET /api/snapshots", NewHandler(e, listSnapshots))
	mux.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return metricsMiddleware(m, mux)
}

type indexData struct {
	FullName  string
	Snapshots []models.Snapshot
	Live      bool
	Error     string
}

// index shows the stored snapshots, or today's live data while
// the store is still empty
func index(e *Env, w http.ResponseWriter, r *http.Request) error {
	data := indexData{FullName: models.DefaultFullName}
	status := http.StatusOK

	snaps, err := e.DB.List(r.Context(), indexSnapshotLimit)
	if err == nil && len(snaps) == 0 {
		var live models.Snapshot
		live, err = e.Sync.Overview(r.Context(), e.Sync.Today())
		if err == nil {
			snaps = []models.Snapshot{live}
			data.Live = true
		}
	}

	if err != nil {
		log.WithError(err).Error("failed to load overview")
		data.Error = err.Error()
		status = http.StatusInternalServerError
	} else {
		data.Snapshots = snaps
		data.FullName = snaps[0].FullName
	}

	var b bytes.Buffer
	if err := e.Tmpl.ExecuteTemplate(&b, "index.tmpl", data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = b.WriteTo(w)

	return err
}

type healthResponse struct {
	Status   string     `json:"status"`
	Uptime   string     `json:"uptime"`
	NextSync *time.Time `json:"next_sync,omitempty"`
}

func health(e *Env, w http.ResponseWriter, r *http.Request) error {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(e.Started).Truncate(time.Second).String(),
	}

	if next := nextRun(e.Cron); !next.IsZero() {
		resp.NextSync = &next
	}

	return writeJSON(w, http.StatusOK, resp)
}

type syncResponse struct {
	Status string   `json:"status"`
	RunID  string   `json:"run_id"`
	Dates  []string `json:"dates"`
}

func syncDay(e *Env, w http.ResponseWriter, r *http.Request) error {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(store.DateLayout, date); err != nil {
			return StatusError{
				Code: http.StatusBadRequest,
				Err:  errors.Errorf("invalid date %q, expected YYYY-MM-DD", date),
			}
		}
	}

	runID := uuid.NewV4().String()
	logger := log.WithFields(log.Fields{"run_id": runID, "trigger": "manual"})
	logger.Info("Starting sync")

	snap, err := e.Sync.SyncDay(detach(r), date)
	if err != nil {
		logger.WithError(err).Error("sync failed")
		return err
	}

	return writeJSON(w, http.StatusOK, syncResponse{Status: "ok", RunID: runID, Dates: []string{snap.Date}})
}

func seedWeek(e *Env, w http.ResponseWriter, r *http.Request) error {
	days := defaultSeedDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSeedDays {
			return StatusError{
				Code: http.StatusBadRequest,
				Err:  errors.Errorf("days must be between 1 and %d", maxSeedDays),
			}
		}
		days = n
	}

	runID := uuid.NewV4().String()
	logger := log.WithFields(log.Fields{"run_id": runID, "days": days})
	logger.Info("Starting backfill")

	dates, err := e.Sync.Backfill(detach(r), days)
	if err != nil {
		logger.WithError(err).WithField("stored", len(dates)).Error("backfill failed")
		return err
	}

	return writeJSON(w, http.StatusOK, syncResponse{Status: "ok", RunID: runID, Dates: dates})
}

func deleteSnapshots(e *Env, w http.ResponseWriter, r *http.Request) error {
	if err := e.DB.ClearAll(r.Context()); err != nil {
		return err
	}

	log.Println("All snapshots deleted")

	return writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{"ok"})
}

type snapshotsResponse struct {
	Status    string            `json:"status"`
	Snapshots []models.Snapshot `json:"snapshots"`
}

func listSnapshots(e *Env, w http.ResponseWriter, r *http.Request) error {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return StatusError{Code: http.StatusBadRequest, Err: errors.New("limit must be a non-negative integer")}
		}
		limit = n
	}

	snaps, err := e.DB.List(r.Context(), limit)
	if err != nil {
		return err
	}

	if snaps == nil {
		snaps = []models.Snapshot{}
	}

	return writeJSON(w, http.StatusOK, snapshotsResponse{Status: "ok", Snapshots: snaps})
}

// detach keeps a sync running when the client hangs up. A started
// fetch runs to completion or failure.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
