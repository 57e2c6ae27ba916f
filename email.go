package main

import (
	"bytes"
	"text/template"
	"time"

	"github.com/jboverfelt/activetrack/models"
	"github.com/pkg/errors"
	"gopkg.in/mailgun/mailgun-go.v1"
)

// syncReport describes one scheduled run
type syncReport struct {
	RunID    string
	Kind     string
	Date     string
	Started  time.Time
	Snapshot *models.Snapshot
	Err      error
}

// Notifier delivers sync reports
type Notifier interface {
	Notify(r syncReport) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(syncReport) error { return nil }

// sender is the part of mailgun.Mailgun the notifier needs
type sender interface {
	Domain() string
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(m *mailgun.Message) (string, string, error)
}

type mailgunNotifier struct {
	mg   sender
	to   string
	tmpl *template.Template
}

func newNotifier(cfg mailConfig) (Notifier, error) {
	if !cfg.Enabled() {
		return noopNotifier{}, nil
	}

	tmpl, err := parseEmailTemplate()
	if err != nil {
		return nil, err
	}

	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey, cfg.PublicKey)

	return &mailgunNotifier{mg: mg, to: cfg.To, tmpl: tmpl}, nil
}

func (n *mailgunNotifier) Notify(r syncReport) error {
	body, err := genReportMessage(n.tmpl, r)
	if err != nil {
		return err
	}

	fromAddr := "activetrack@" + n.mg.Domain()
	msg := n.mg.NewMessage(fromAddr, reportSubject(r), body, n.to)

	if _, _, err := n.mg.Send(msg); err != nil {
		return errors.Wrap(err, "failed to send report email")
	}

	return nil
}

func reportSubject(r syncReport) string {
	if r.Err != nil {
		return "Activetrack sync failed for " + r.Date
	}

	return "Activetrack snapshot for " + r.Date
}

type reportData struct {
	RunID    string
	Kind     string
	Date     string
	Started  string
	FullName string
	Metrics  models.DailyMetrics
	Groups   models.ActivityGroups
	Error    string
}

func genReportMessage(tmpl *template.Template, r syncReport) (string, error) {
	data := reportData{
		RunID:   r.RunID,
		Kind:    r.Kind,
		Date:    r.Date,
		Started: r.Started.Format(time.RFC1123),
	}

	if r.Err != nil {
		data.Error = r.Err.Error()
	} else if r.Snapshot != nil {
		data.FullName = r.Snapshot.FullName
		data.Metrics = r.Snapshot.DailyMetrics
		data.Groups = r.Snapshot.ActivityGroups
	}

	var b bytes.Buffer
	if err := tmpl.ExecuteTemplate(&b, "email.tmpl", data); err != nil {
		return "", errors.Wrap(err, "failed to render report")
	}

	return b.String(), nil
}
