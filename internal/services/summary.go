package services

import (
	"math"
	"strconv"

	"github.com/nivara-app/nivara-backend/internal/models"
)

// summaryWindow is how many of the most recent records the dashboard
// aggregates over.
const summaryWindow = 7

// MetricRange is the observed min/max of one numeric metric in the window.
type MetricRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// WeeklySummary is the dashboard's aggregate view over the last records.
// Averages follow the dashboard's display precision: steps rounded to a whole
// number, sleep and mood to one decimal.
type WeeklySummary struct {
	DaysTracked   int     `json:"daysTracked"`
	AvgSteps      int     `json:"avgSteps"`
	AvgSleepHours float64 `json:"avgSleepHours"`
	AvgMood       float64 `json:"avgMood"`

	HeartRate  *MetricRange `json:"heartRate,omitempty"`
	Steps      *MetricRange `json:"steps,omitempty"`
	SleepHours *MetricRange `json:"sleepHours,omitempty"`
	Weight     *MetricRange `json:"weight,omitempty"`
}

// WeeklySummaryOf aggregates the last seven records. Metric values are opaque
// strings at the store layer, so anything unparseable is skipped rather than
// failing the summary.
func WeeklySummaryOf(records []models.HealthRecord) WeeklySummary {
	recent := records
	if len(recent) > summaryWindow {
		recent = recent[len(recent)-summaryWindow:]
	}

	summary := WeeklySummary{DaysTracked: len(recent)}
	if len(recent) == 0 {
		return summary
	}

	steps := numericValues(recent, func(r models.HealthRecord) string { return r.Steps })
	sleep := numericValues(recent, func(r models.HealthRecord) string { return r.SleepDuration })
	mood := numericValues(recent, func(r models.HealthRecord) string { return r.MoodLevel })
	heartRate := numericValues(recent, func(r models.HealthRecord) string { return r.HeartRate })
	weight := numericValues(recent, func(r models.HealthRecord) string { return r.Weight })

	summary.AvgSteps = int(math.Round(mean(steps)))
	summary.AvgSleepHours = roundTo1(mean(sleep))
	summary.AvgMood = roundTo1(mean(mood))

	summary.Steps = rangeOf(steps)
	summary.SleepHours = rangeOf(sleep)
	summary.HeartRate = rangeOf(heartRate)
	summary.Weight = rangeOf(weight)

	return summary
}

func numericValues(records []models.HealthRecord, field func(models.HealthRecord) string) []float64 {
	var out []float64
	for _, r := range records {
		if v, err := strconv.ParseFloat(field(r), 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func rangeOf(values []float64) *MetricRange {
	if len(values) == 0 {
		return nil
	}
	r := &MetricRange{Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	return r
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
