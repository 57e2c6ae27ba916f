package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDaily_SummaryWrapper(t *testing.T) {
	raw := []byte(`{"summary": {"totalSteps": 8123, "restingHeartRate": 52, "sleepingSeconds": 27000}}`)

	f := ExtractDaily(raw)

	require.NotNil(t, f.Steps)
	assert.Equal(t, 8123.0, *f.Steps)
	require.NotNil(t, f.RestingHR)
	assert.Equal(t, 52.0, *f.RestingHR)
	require.NotNil(t, f.SleepHours)
	assert.Equal(t, 7.5, *f.SleepHours)
}

func TestExtractDaily_UnwrappedPayload(t *testing.T) {
	raw := []byte(`{"steps": 400, "distanceInMeters": 5000, "wellnessActiveKilocalories": 310}`)

	f := ExtractDaily(raw)

	require.NotNil(t, f.Steps)
	assert.Equal(t, 400.0, *f.Steps)
	require.NotNil(t, f.DistanceKm)
	assert.Equal(t, 5.0, *f.DistanceKm)
	require.NotNil(t, f.ActiveKcal)
	assert.Equal(t, 310.0, *f.ActiveKcal)
}

func TestExtractDaily_CandidatePriority(t *testing.T) {
	raw := []byte(`{"totalSteps": 10, "steps": 20, "totalDistanceMeters": 1500, "distanceInMeters": 9000}`)

	f := ExtractDaily(raw)

	assert.Equal(t, 10.0, *f.Steps)
	assert.Equal(t, 1.5, *f.DistanceKm)
}

func TestExtractDaily_ZeroFallsThroughToNextCandidate(t *testing.T) {
	raw := []byte(`{"totalSteps": 0, "steps": 77}`)

	f := ExtractDaily(raw)

	require.NotNil(t, f.Steps)
	assert.Equal(t, 77.0, *f.Steps)
}

func TestExtractDaily_PresentZeroIsNotAbsent(t *testing.T) {
	raw := []byte(`{"restingHeartRate": 0, "totalSteps": 0, "steps": 0}`)

	f := ExtractDaily(raw)

	require.NotNil(t, f.RestingHR)
	assert.Equal(t, 0.0, *f.RestingHR)
	require.NotNil(t, f.Steps)
	assert.Equal(t, 0.0, *f.Steps)
}

func TestExtractDaily_MissingFieldsAreAbsent(t *testing.T) {
	f := ExtractDaily([]byte(`{"summary": {}}`))

	for _, m := range f.Metrics() {
		assert.Nil(t, m.Value, m.Label)
	}
}

func TestExtractDaily_StressDetailsFallback(t *testing.T) {
	raw := []byte(`{"summary": {"totalSteps": 1}, "stressDetails": {"averageStressLevel": 31}}`)

	f := ExtractDaily(raw)

	require.NotNil(t, f.StressAvg)
	assert.Equal(t, 31.0, *f.StressAvg)
}

func TestExtractDaily_UnitConversions(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		distance *float64
		sleep    *float64
	}{
		{"meters and seconds", `{"totalDistanceMeters": 5000, "sleepingSeconds": 7230}`, Float(5.0), Float(2.01)},
		{"rounding", `{"totalDistanceMeters": 1234.567, "sleepingSeconds": 3599}`, Float(1.23), Float(1.0)},
		{"zero is absent", `{"totalDistanceMeters": 0, "sleepingSeconds": 0}`, nil, nil},
		{"missing is absent", `{}`, nil, nil},
		{"non numeric is absent", `{"totalDistanceMeters": "far", "sleepingSeconds": null}`, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractDaily([]byte(tt.raw))
			assert.Equal(t, tt.distance, f.DistanceKm)
			assert.Equal(t, tt.sleep, f.SleepHours)
		})
	}
}

func TestExtractDaily_NotAnObject(t *testing.T) {
	for _, raw := range []string{`[]`, `[1,2]`, `"summary"`, `42`, `null`, ``, `{broken`} {
		assert.Equal(t, DailyFields{}, ExtractDaily([]byte(raw)), raw)
	}
}

func TestExtractActivity(t *testing.T) {
	raw := []byte(`{
		"activityType": {"typeKey": "running"},
		"startTimeLocal": "2025-10-07 07:12:00",
		"startTimeGMT": "2025-10-07 05:12:00",
		"distance": 10250.4,
		"duration": 3600,
		"averageHR": 148,
		"maxHeartRate": 171,
		"calories": 612,
		"elevationGain": 88
	}`)

	r := ExtractActivity(raw)

	assert.Equal(t, "running", r.Type)
	assert.Equal(t, "2025-10-07 07:12:00", r.Start)
	assert.Equal(t, Float(10.25), r.DistanceKm)
	assert.Equal(t, Float(1.0), r.DurationHours)
	assert.Equal(t, Float(148), r.AvgHR)
	assert.Equal(t, Float(171), r.MaxHR)
	assert.Equal(t, Float(612), r.Calories)
	assert.Equal(t, Float(88), r.ElevationGain)
}

func TestExtractActivity_Fallbacks(t *testing.T) {
	r := ExtractActivity([]byte(`{"startTimeGMT": "2025-10-07 05:12:00", "distance": 0, "activityType": "running"}`))

	assert.Equal(t, UnknownActivityType, r.Type)
	assert.Equal(t, "2025-10-07 05:12:00", r.Start)
	assert.Nil(t, r.DistanceKm)
	assert.Nil(t, r.DurationHours)
	assert.Nil(t, r.AvgHR)
}

func TestExtractActivity_NotAnObject(t *testing.T) {
	assert.Equal(t, ActivityRecord{Type: UnknownActivityType}, ExtractActivity([]byte(`null`)))
	assert.Equal(t, ActivityRecord{Type: UnknownActivityType}, ExtractActivity([]byte(`nope`)))
}
