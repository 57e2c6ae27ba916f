package models

import "github.com/tidwall/gjson"

// Labels of the daily metric catalog, in display order
const (
	LabelSteps           = "Steps"
	LabelRestingHR       = "Resting heart rate"
	LabelMinHR           = "Min heart rate"
	LabelMaxHR           = "Max heart rate"
	LabelAvgRestingHR7d  = "7-day avg resting heart rate"
	LabelStressAvg       = "Average stress level"
	LabelDistanceKm      = "Total distance (km)"
	LabelBodyBatteryHigh = "Body battery high"
	LabelBodyBatteryLow  = "Body battery low"
	LabelActiveKcal      = "Active kilocalories"
	LabelTotalKcal       = "Total kilocalories"
	LabelSleepHours      = "Sleep hours"
)

// Metrics packages the extracted fields into the ordered catalog
func (f DailyFields) Metrics() DailyMetrics {
	return DailyMetrics{
		{Label: LabelSteps, Value: f.Steps},
		{Label: LabelRestingHR, Value: f.RestingHR},
		{Label: LabelMinHR, Value: f.MinHR},
		{Label: LabelMaxHR, Value: f.MaxHR},
		{Label: LabelAvgRestingHR7d, Value: f.AvgRestingHR7d},
		{Label: LabelStressAvg, Value: f.StressAvg},
		{Label: LabelDistanceKm, Value: f.DistanceKm},
		{Label: LabelBodyBatteryHigh, Value: f.BodyBatteryHigh},
		{Label: LabelBodyBatteryLow, Value: f.BodyBatteryLow},
		{Label: LabelActiveKcal, Value: f.ActiveKcal},
		{Label: LabelTotalKcal, Value: f.TotalKcal},
		{Label: LabelSleepHours, Value: f.SleepHours},
	}
}

// GroupActivities groups a raw activity list by activity type.
// Anything that is not a JSON array produces no groups.
func GroupActivities(raw []byte) ActivityGroups {
	groups := ActivityGroups{}

	if !gjson.ValidBytes(raw) {
		return groups
	}

	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		return groups
	}

	list.ForEach(func(_, item gjson.Result) bool {
		record := extractActivity(item)
		groups[record.Type] = append(groups[record.Type], record)
		return true
	})

	return groups
}

// BuildSnapshot assembles the snapshot for date from the raw daily summary
// and activity payloads
func BuildSnapshot(date, fullName string, summary, activities []byte) Snapshot {
	if fullName == "" {
		fullName = DefaultFullName
	}

	return Snapshot{
		Date:           date,
		FullName:       fullName,
		DailyMetrics:   ExtractDaily(summary).Metrics(),
		ActivityGroups: GroupActivities(activities),
	}
}
