package models

import "time"

// Metrics is one day's worth of tracked values as submitted by the form.
// Values arrive as strings and stay strings here; numeric validation, if any,
// belongs to the form layer.
type Metrics struct {
	HeartRate        string `json:"heartRate"`
	SystolicBP       string `json:"systolicBP"`
	DiastolicBP      string `json:"diastolicBP"`
	Steps            string `json:"steps"`
	ActiveMinutes    string `json:"activeMinutes"`
	SleepDuration    string `json:"sleepDuration"`
	SleepQuality     string `json:"sleepQuality"`
	CaloriesBurned   string `json:"caloriesBurned"`
	CaloriesConsumed string `json:"caloriesConsumed"`
	WaterIntake      string `json:"waterIntake"`
	Weight           string `json:"weight"`
	MoodLevel        string `json:"moodLevel"`
	StressLevel      string `json:"stressLevel"`

	Headache       bool `json:"headache"`
	Fatigue        bool `json:"fatigue"`
	LossOfAppetite bool `json:"lossOfAppetite"`
	BodyPain       bool `json:"bodyPain"`
	Dizziness      bool `json:"dizziness"`
}

// HealthRecord is a stored submission. At most one exists per (UserID, Date);
// a later save on the same date replaces the earlier one.
type HealthRecord struct {
	Metrics

	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Date      string    `json:"date"` // local calendar date, YYYY-MM-DD
}
