package models

import (
	"math"

	"github.com/tidwall/gjson"
)

// DailyFields holds the values pulled out of a daily summary payload.
// Every field is nil when the payload did not carry it.
type DailyFields struct {
	Steps           *float64
	RestingHR       *float64
	MinHR           *float64
	MaxHR           *float64
	AvgRestingHR7d  *float64
	StressAvg       *float64
	DistanceKm      *float64
	BodyBatteryHigh *float64
	BodyBatteryLow  *float64
	ActiveKcal      *float64
	TotalKcal       *float64
	SleepHours      *float64
}

// ExtractDaily reads the daily summary catalog out of raw.
// The vendor has moved these fields around between API revisions, so each
// one is looked up under every key it has been seen at.
func ExtractDaily(raw []byte) DailyFields {
	if !gjson.ValidBytes(raw) {
		return DailyFields{}
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return DailyFields{}
	}

	data := root
	if summary := root.Get("summary"); summary.IsObject() {
		data = summary
	}

	// stress sometimes only shows up under stressDetails
	var stressDetails gjson.Result
	if sd := root.Get("stressDetails"); sd.IsObject() {
		stressDetails = sd.Get("averageStressLevel")
	}

	return DailyFields{
		Steps:           coalesce(data.Get("totalSteps"), data.Get("steps")),
		RestingHR:       coalesce(data.Get("restingHeartRate")),
		MinHR:           coalesce(data.Get("minHeartRate")),
		MaxHR:           coalesce(data.Get("maxHeartRate")),
		AvgRestingHR7d:  coalesce(data.Get("lastSevenDaysAvgRestingHeartRate")),
		StressAvg:       coalesce(data.Get("averageStressLevel"), stressDetails),
		DistanceKm:      metersToKm(coalesce(data.Get("totalDistanceMeters"), data.Get("distanceInMeters"))),
		BodyBatteryHigh: coalesce(data.Get("bodyBatteryHighestValue")),
		BodyBatteryLow:  coalesce(data.Get("bodyBatteryLowestValue")),
		ActiveKcal:      coalesce(data.Get("activeKilocalories"), data.Get("wellnessActiveKilocalories")),
		TotalKcal:       coalesce(data.Get("totalKilocalories")),
		SleepHours:      secondsToHours(coalesce(data.Get("sleepingSeconds"))),
	}
}

// ExtractActivity normalizes a single raw activity object
func ExtractActivity(raw []byte) ActivityRecord {
	if !gjson.ValidBytes(raw) {
		return ActivityRecord{Type: UnknownActivityType}
	}

	return extractActivity(gjson.ParseBytes(raw))
}

func extractActivity(item gjson.Result) ActivityRecord {
	if !item.IsObject() {
		return ActivityRecord{Type: UnknownActivityType}
	}

	return ActivityRecord{
		Type:          activityType(item),
		Start:         firstString(item.Get("startTimeLocal"), item.Get("startTimeGMT")),
		DistanceKm:    metersToKm(coalesce(item.Get("distance"))),
		DurationHours: secondsToHours(coalesce(item.Get("duration"))),
		AvgHR:         coalesce(item.Get("averageHR"), item.Get("averageHeartRate")),
		MaxHR:         coalesce(item.Get("maxHR"), item.Get("maxHeartRate")),
		Calories:      coalesce(item.Get("calories")),
		ElevationGain: coalesce(item.Get("elevationGain")),
	}
}

// activityType unwraps activityType.typeKey
func activityType(item gjson.Result) string {
	t := item.Get("activityType")
	if !t.IsObject() {
		return UnknownActivityType
	}

	key := t.Get("typeKey")
	if key.Type != gjson.String || key.Str == "" {
		return UnknownActivityType
	}

	return key.Str
}

// coalesce returns the first non-zero number among candidates. When none is
// non-zero the last candidate decides: a present zero stays zero, anything
// else is absent. Non-numeric values count as missing.
func coalesce(candidates ...gjson.Result) *float64 {
	var last gjson.Result
	for _, c := range candidates {
		if c.Type == gjson.Number && c.Num != 0 {
			return Float(c.Num)
		}
		last = c
	}

	if last.Type == gjson.Number {
		return Float(last.Num)
	}

	return nil
}

func firstString(candidates ...gjson.Result) string {
	for _, c := range candidates {
		if c.Type == gjson.String && c.Str != "" {
			return c.Str
		}
	}

	return ""
}

func metersToKm(meters *float64) *float64 {
	if meters == nil || *meters == 0 {
		return nil
	}

	return Float(round2(*meters / 1000))
}

func secondsToHours(seconds *float64) *float64 {
	if seconds == nil || *seconds == 0 {
		return nil
	}

	return Float(round2(*seconds / 3600))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
