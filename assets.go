package main

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	"text/template"

	"github.com/jboverfelt/activetrack/models"
	"github.com/pkg/errors"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const notAvailable = "not available"

var templateFuncs = map[string]interface{}{
	"value":        formatValue,
	"activityLine": activityLine,
}

func parsePageTemplates() (*htmltemplate.Template, error) {
	tmpl, err := htmltemplate.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse page templates")
	}

	return tmpl, nil
}

func parseEmailTemplate() (*template.Template, error) {
	tmpl, err := template.New("email").Funcs(templateFuncs).ParseFS(templateFS, "templates/email.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse email template")
	}

	return tmpl, nil
}

func formatValue(v *float64) string {
	if v == nil {
		return notAvailable
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// activityLine renders one session as
// "start - 5.00 km - 0.50 h - avg HR 140 - max HR 170 - calories 400 - elev gain 50 m"
func activityLine(a models.ActivityRecord) string {
	start := a.Start
	if start == "" {
		start = "unknown start"
	}

	parts := []string{
		start,
		optional(a.DistanceKm, "distance n/a", func(v float64) string { return fmt.Sprintf("%.2f km", v) }),
		optional(a.DurationHours, "duration n/a", func(v float64) string { return fmt.Sprintf("%.2f h", v) }),
		labelled("avg HR", a.AvgHR, ""),
		labelled("max HR", a.MaxHR, ""),
		labelled("calories", a.Calories, ""),
		labelled("elev gain", a.ElevationGain, " m"),
	}

	return strings.Join(parts, " - ")
}

func optional(v *float64, missing string, format func(float64) string) string {
	if v == nil {
		return missing
	}

	return format(*v)
}

func labelled(label string, v *float64, unit string) string {
	if v == nil {
		return label + " n/a"
	}

	return label + " " + strconv.FormatFloat(*v, 'f', -1, 64) + unit
}
