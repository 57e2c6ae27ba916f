package main

import (
	"testing"

	"github.com/jboverfelt/activetrack/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "not available", formatValue(nil))
	assert.Equal(t, "0", formatValue(models.Float(0)))
	assert.Equal(t, "8421", formatValue(models.Float(8421)))
	assert.Equal(t, "7.51", formatValue(models.Float(7.51)))
}

func TestActivityLine(t *testing.T) {
	full := models.ActivityRecord{
		Type:          "running",
		Start:         "2025-10-07 07:00:00",
		DistanceKm:    models.Float(5),
		DurationHours: models.Float(0.5),
		AvgHR:         models.Float(140),
		MaxHR:         models.Float(171),
		Calories:      models.Float(410),
		ElevationGain: models.Float(52.5),
	}
	assert.Equal(t,
		"2025-10-07 07:00:00 - 5.00 km - 0.50 h - avg HR 140 - max HR 171 - calories 410 - elev gain 52.5 m",
		activityLine(full))

	assert.Equal(t,
		"unknown start - distance n/a - duration n/a - avg HR n/a - max HR n/a - calories n/a - elev gain n/a",
		activityLine(models.ActivityRecord{Type: models.UnknownActivityType}))
}

func TestTemplatesParse(t *testing.T) {
	_, err := parsePageTemplates()
	assert.NoError(t, err)

	_, err = parseEmailTemplate()
	assert.NoError(t, err)
}
