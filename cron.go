package main

import (
	"context"
	"time"

	"github.com/robfig/cron"
	"github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// nightlySync syncs yesterday's snapshot and mails the report
func nightlySync(e *Env) func() {
	return func() {
		report := syncReport{
			RunID:   uuid.NewV4().String(),
			Kind:    "nightly",
			Date:    e.Sync.Yesterday(),
			Started: time.Now(),
		}

		logger := log.WithField("run_id", report.RunID)
		logger.Info("Starting nightly sync")

		snap, err := e.Sync.SyncDay(context.Background(), report.Date)
		if err != nil {
			logger.WithError(err).Error("nightly sync failed")
			report.Err = err
		} else {
			logger.WithField("date", snap.Date).Info("nightly sync finished")
			report.Snapshot = &snap
		}

		if err := e.Notifier.Notify(report); err != nil {
			logger.WithError(err).Error("failed to send sync report")
		}
	}
}

func setupCron(c *cron.Cron, schedule string, e *Env) error {
	log.Printf("Scheduling nightly sync on schedule: %s", schedule)

	return c.AddFunc(schedule, nightlySync(e))
}

// nextRun returns the earliest scheduled run, or the zero time when
// nothing is scheduled or the scheduler has not started
func nextRun(c *cron.Cron) time.Time {
	if c == nil {
		return time.Time{}
	}

	var next time.Time
	for _, entry := range c.Entries() {
		if entry.Next.IsZero() {
			continue
		}
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}

	return next
}
