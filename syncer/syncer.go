// Package syncer fetches daily snapshots from the vendor and writes them
// to the snapshot store.
package syncer

import (
	"context"
	"time"

	"github.com/jboverfelt/activetrack/garmin"
	"github.com/jboverfelt/activetrack/models"
	"github.com/jboverfelt/activetrack/store"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultActivityLimit = 20
	// DefaultCooldown is how long to back off after a rate limit
	DefaultCooldown = 60 * time.Second
	// DefaultPacing is the pause between days of a backfill
	DefaultPacing = 2 * time.Second
)

// Run kinds reported to Metrics
const (
	KindOverview = "overview"
	KindSync     = "sync"
	KindBackfill = "backfill"
)

// Session is one authenticated vendor session
type Session interface {
	DailySummary(ctx context.Context, date string) ([]byte, error)
	Activities(ctx context.Context, start, limit int) ([]byte, error)
	FullName(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// LoginFunc opens a new Session
type LoginFunc func(ctx context.Context) (Session, error)

// Metrics receives sync outcomes
type Metrics interface {
	IncRun(kind, result string)
	IncRateLimited()
	IncUpserted()
}

type noopMetrics struct{}

func (noopMetrics) IncRun(_, _ string) {}
func (noopMetrics) IncRateLimited()    {}
func (noopMetrics) IncUpserted()       {}

// Syncer drives fetch, normalize and store cycles
type Syncer struct {
	login   LoginFunc
	store   store.Store
	metrics Metrics

	activityLimit int
	cooldown      time.Duration
	pacing        time.Duration
	sleep         func(time.Duration)
	now           func() time.Time
	loc           *time.Location
}

// Option configures a Syncer
type Option func(*Syncer)

// WithActivityLimit sets how many recent activities are fetched per day
func WithActivityLimit(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.activityLimit = n
		}
	}
}

// WithCooldown sets the rate limit backoff
func WithCooldown(d time.Duration) Option {
	return func(s *Syncer) { s.cooldown = d }
}

// WithPacing sets the pause between backfilled days
func WithPacing(d time.Duration) Option {
	return func(s *Syncer) { s.pacing = d }
}

// WithSleep replaces time.Sleep
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Syncer) { s.sleep = fn }
}

// WithClock replaces time.Now
func WithClock(fn func() time.Time) Option {
	return func(s *Syncer) { s.now = fn }
}

// WithLocation sets the timezone calendar days are computed in
func WithLocation(loc *time.Location) Option {
	return func(s *Syncer) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMetrics sets the Metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Syncer) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a Syncer that logs in with login and writes to st
func New(login LoginFunc, st store.Store, opts ...Option) *Syncer {
	s := &Syncer{
		login:         login,
		store:         st,
		metrics:       noopMetrics{},
		activityLimit: DefaultActivityLimit,
		cooldown:      DefaultCooldown,
		pacing:        DefaultPacing,
		sleep:         time.Sleep,
		now:           time.Now,
		loc:           time.Local,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Today returns the current calendar date
func (s *Syncer) Today() string {
	return s.daysAgo(0)
}

// Yesterday returns the previous calendar date
func (s *Syncer) Yesterday() string {
	return s.daysAgo(1)
}

func (s *Syncer) daysAgo(n int) string {
	return s.now().In(s.loc).AddDate(0, 0, -n).Format(store.DateLayout)
}

// Overview fetches the snapshot for date without storing it
func (s *Syncer) Overview(ctx context.Context, date string) (snap models.Snapshot, err error) {
	defer func() { s.metrics.IncRun(KindOverview, result(err)) }()

	sess, err := s.login(ctx)
	if err != nil {
		return snap, errors.Wrap(err, "login failed")
	}
	defer s.logout(ctx, sess)

	return s.fetch(ctx, sess, date)
}

// SyncDay fetches and stores the snapshot for date. An empty date means
// yesterday.
func (s *Syncer) SyncDay(ctx context.Context, date string) (snap models.Snapshot, err error) {
	defer func() { s.metrics.IncRun(KindSync, result(err)) }()

	if date == "" {
		date = s.Yesterday()
	}

	sess, err := s.login(ctx)
	if err != nil {
		return snap, errors.Wrap(err, "login failed")
	}
	defer s.logout(ctx, sess)

	snap, err = s.fetch(ctx, sess, date)
	if err != nil {
		return snap, err
	}

	if err = s.upsert(ctx, date, snap); err != nil {
		return snap, err
	}

	log.WithField("date", date).Info("snapshot synced")

	return snap, nil
}

// Backfill fetches and stores the snapshots of the last days calendar
// days, starting yesterday and walking backwards, over a single session.
// A rate limited day is retried once after the cooldown; any other error
// stops the run. The dates stored before the failure are returned either way.
func (s *Syncer) Backfill(ctx context.Context, days int) (stored []string, err error) {
	defer func() { s.metrics.IncRun(KindBackfill, result(err)) }()

	if days <= 0 {
		return nil, errors.Errorf("backfill needs a positive day count, got %d", days)
	}

	sess, err := s.login(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "login failed")
	}
	defer s.logout(ctx, sess)

	for offset := 1; offset <= days; offset++ {
		date := s.daysAgo(offset)

		snap, err := s.fetch(ctx, sess, date)
		if garmin.IsRateLimited(err) {
			s.metrics.IncRateLimited()
			log.WithField("date", date).Warnf("rate limited, retrying in %s", s.cooldown)
			s.sleep(s.cooldown)
			snap, err = s.fetch(ctx, sess, date)
			if garmin.IsRateLimited(err) {
				s.metrics.IncRateLimited()
			}
		}

		if err != nil {
			return stored, err
		}

		if err := s.upsert(ctx, date, snap); err != nil {
			return stored, err
		}

		stored = append(stored, date)
		log.WithFields(log.Fields{"date": date, "day": offset, "of": days}).Info("backfilled snapshot")

		s.sleep(s.pacing)
	}

	return stored, nil
}

func (s *Syncer) fetch(ctx context.Context, sess Session, date string) (models.Snapshot, error) {
	summary, err := sess.DailySummary(ctx, date)
	if err != nil {
		return models.Snapshot{}, errors.Wrapf(err, "failed to fetch summary for %s", date)
	}

	activities, err := sess.Activities(ctx, 0, s.activityLimit)
	if err != nil {
		return models.Snapshot{}, errors.Wrapf(err, "failed to fetch activities for %s", date)
	}

	fullName, err := sess.FullName(ctx)
	if err != nil {
		return models.Snapshot{}, errors.Wrap(err, "failed to fetch full name")
	}

	return models.BuildSnapshot(date, fullName, summary, activities), nil
}

func (s *Syncer) upsert(ctx context.Context, date string, snap models.Snapshot) error {
	if err := s.store.Upsert(ctx, date, snap); err != nil {
		return err
	}

	s.metrics.IncUpserted()

	return nil
}

// logout is best effort. Its error is logged and dropped so it never
// replaces the result of the run.
func (s *Syncer) logout(ctx context.Context, sess Session) {
	if err := sess.Logout(ctx); err != nil {
		log.WithError(err).Debug("logout failed")
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
