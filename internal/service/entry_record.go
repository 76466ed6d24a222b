package service

import (
	"maps"

	"github.com/wellnesslog/internal/wellness"
)

// EntryRecord 是记录在接口与导出中的 JSON 形态，只使用规范字段名。
type EntryRecord struct {
	Date   string `json:"date"`
	UserID string `json:"user_id"`

	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
	Snacks    string `json:"snacks"`

	StressMorning   *float64 `json:"stress_morning"`
	StressAfternoon *float64 `json:"stress_afternoon"`
	StressNight     *float64 `json:"stress_night"`
	AverageStress   *float64 `json:"average_stress"`

	ExerciseMinutes *int     `json:"exercise_minutes"`
	WaterIntake     *int     `json:"water_intake"`
	SleepHours      *float64 `json:"sleep_hours"`
	SleepQuality    *float64 `json:"sleep_quality"`

	OnPeriod   bool            `json:"on_period"`
	PeriodDay  *int            `json:"period_day"`
	CyclePhase string          `json:"cycle_phase"`
	Symptoms   map[string]bool `json:"symptoms"`

	Notes           string `json:"notes"`
	AdditionalNotes string `json:"additional_notes"`

	WellnessScore   *float64 `json:"wellness_score"`
	SentimentScore  float64  `json:"sentiment_score"`
	PredictedEnergy *float64 `json:"predicted_energy"`
}

// NewEntryRecord 把领域记录转换为 JSON 形态。
func NewEntryRecord(e wellness.Entry) EntryRecord {
	symptoms := maps.Clone(e.Symptoms)
	if symptoms == nil {
		symptoms = map[string]bool{}
	}
	return EntryRecord{
		Date:            e.DateString(),
		UserID:          e.UserID,
		Breakfast:       e.Breakfast,
		Lunch:           e.Lunch,
		Dinner:          e.Dinner,
		Snacks:          e.Snacks,
		StressMorning:   e.StressMorning,
		StressAfternoon: e.StressAfternoon,
		StressNight:     e.StressNight,
		AverageStress:   e.AverageStress,
		ExerciseMinutes: e.ExerciseMinutes,
		WaterIntake:     e.WaterIntake,
		SleepHours:      e.SleepHours,
		SleepQuality:    e.SleepQuality,
		OnPeriod:        e.OnPeriod,
		PeriodDay:       e.PeriodDay,
		CyclePhase:      e.CyclePhase,
		Symptoms:        symptoms,
		Notes:           e.Notes,
		AdditionalNotes: e.AdditionalNotes,
		WellnessScore:   e.WellnessScore,
		SentimentScore:  e.SentimentScore,
		PredictedEnergy: e.PredictedEnergy,
	}
}

// NewEntryRecords 批量转换。
func NewEntryRecords(entries []wellness.Entry) []EntryRecord {
	out := make([]EntryRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewEntryRecord(e))
	}
	return out
}
