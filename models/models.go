package models

import "sort"

// DefaultFullName is shown when the vendor profile has no name
const DefaultFullName = "Activetrack"

// UnknownActivityType groups activities whose type could not be resolved
const UnknownActivityType = "unknown"

// Metric represents one labelled daily value.
// A nil Value means the vendor did not report it.
type Metric struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

// DailyMetrics is the ordered metric catalog for one day
type DailyMetrics []Metric

// Get returns the value stored under label
func (d DailyMetrics) Get(label string) (*float64, bool) {
	for _, m := range d {
		if m.Label == label {
			return m.Value, true
		}
	}

	return nil, false
}

// ActivityRecord represents one exercise session
type ActivityRecord struct {
	Type          string   `json:"type"`
	Start         string   `json:"start"`
	DistanceKm    *float64 `json:"distance_km"`
	DurationHours *float64 `json:"duration_hours"`
	AvgHR         *float64 `json:"avg_hr"`
	MaxHR         *float64 `json:"max_hr"`
	Calories      *float64 `json:"calories"`
	ElevationGain *float64 `json:"elevation_gain"`
}

// ActivityGroups maps an activity type to its sessions in input order
type ActivityGroups map[string][]ActivityRecord

// Types returns the group keys sorted ascending
func (g ActivityGroups) Types() []string {
	types := make([]string, 0, len(g))
	for t := range g {
		types = append(types, t)
	}

	sort.Strings(types)

	return types
}

// Snapshot represents one day of normalized vendor data
type Snapshot struct {
	Date           string         `json:"date"`
	FullName       string         `json:"full_name"`
	DailyMetrics   DailyMetrics   `json:"daily_metrics"`
	ActivityGroups ActivityGroups `json:"activity_groups"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
