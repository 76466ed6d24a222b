package db

import (
	"maps"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wellnesslog/internal/wellness"
)

// DailyEntry 是一天健康记录的数据库行。
// UserID + Date 采用唯一索引，重复提交同一天时合并更新。
// Date 以 2006-01-02 字符串保存，SQLite 与 PostgreSQL 下排序一致。
type DailyEntry struct {
	gorm.Model
	UserID string `gorm:"size:64;not null;index;uniqueIndex:idx_entry_user_date"`
	Date   string `gorm:"size:10;not null;uniqueIndex:idx_entry_user_date"`

	StressMorning   *float64
	StressAfternoon *float64
	StressNight     *float64
	AverageStress   *float64

	SleepHours      *float64
	SleepQuality    *float64
	ExerciseMinutes *int
	WaterIntake     *int

	OnPeriod   bool `gorm:"default:false"`
	PeriodDay  *int
	CyclePhase string `gorm:"size:32"`
	Symptoms   datatypes.JSONMap

	Breakfast string
	Lunch     string
	Dinner    string
	Snacks    string

	Notes           string `gorm:"type:text"`
	AdditionalNotes string `gorm:"type:text"`

	WellnessScore   *float64
	SentimentScore  float64
	PredictedEnergy *float64
}

// TableName 重写确保唯一索引作用到 user_id + date
func (DailyEntry) TableName() string {
	return "daily_entries"
}

// ToEntry 转换为领域记录。
func (r DailyEntry) ToEntry() wellness.Entry {
	date, err := wellness.ParseDate(r.Date)
	if err != nil {
		date = wellness.NormalizeDate(r.CreatedAt)
	}
	return wellness.Entry{
		Date:            date,
		UserID:          r.UserID,
		StressMorning:   r.StressMorning,
		StressAfternoon: r.StressAfternoon,
		StressNight:     r.StressNight,
		AverageStress:   r.AverageStress,
		SleepHours:      r.SleepHours,
		SleepQuality:    r.SleepQuality,
		ExerciseMinutes: r.ExerciseMinutes,
		WaterIntake:     r.WaterIntake,
		OnPeriod:        r.OnPeriod,
		PeriodDay:       r.PeriodDay,
		CyclePhase:      r.CyclePhase,
		Symptoms:        wellness.ParseSymptoms(map[string]any(r.Symptoms)),
		Breakfast:       r.Breakfast,
		Lunch:           r.Lunch,
		Dinner:          r.Dinner,
		Snacks:          r.Snacks,
		Notes:           r.Notes,
		AdditionalNotes: r.AdditionalNotes,
		WellnessScore:   r.WellnessScore,
		SentimentScore:  r.SentimentScore,
		PredictedEnergy: r.PredictedEnergy,
	}
}

// ApplyEntry 用领域记录覆盖当前行的全部内容（主键与时间戳除外）。
func (r *DailyEntry) ApplyEntry(e wellness.Entry) {
	r.UserID = e.UserID
	r.Date = e.DateString()
	r.StressMorning = e.StressMorning
	r.StressAfternoon = e.StressAfternoon
	r.StressNight = e.StressNight
	r.AverageStress = e.AverageStress
	r.SleepHours = e.SleepHours
	r.SleepQuality = e.SleepQuality
	r.ExerciseMinutes = e.ExerciseMinutes
	r.WaterIntake = e.WaterIntake
	r.OnPeriod = e.OnPeriod
	r.PeriodDay = e.PeriodDay
	r.CyclePhase = e.CyclePhase
	r.Symptoms = symptomsMap(e.Symptoms)
	r.Breakfast = e.Breakfast
	r.Lunch = e.Lunch
	r.Dinner = e.Dinner
	r.Snacks = e.Snacks
	r.Notes = e.Notes
	r.AdditionalNotes = e.AdditionalNotes
	r.WellnessScore = e.WellnessScore
	r.SentimentScore = e.SentimentScore
	r.PredictedEnergy = e.PredictedEnergy
}

func symptomsMap(symptoms map[string]bool) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(symptoms))
	for k, v := range symptoms {
		out[k] = v
	}
	return out
}

// EntryTimestamp 是记录最后一次写入的时间。
func (r DailyEntry) EntryTimestamp() time.Time {
	if r.UpdatedAt.IsZero() {
		return r.CreatedAt
	}
	return r.UpdatedAt
}

// UserProfile 保存用户级别的周期设置与偏好。
type UserProfile struct {
	gorm.Model
	UserID             string `gorm:"size:64;uniqueIndex;not null"`
	AverageCycleLength int    `gorm:"default:28"`
	LastPeriodStart    string `gorm:"size:10"`
	Preferences        datatypes.JSONMap
}

// TableName 返回自定义表名
func (UserProfile) TableName() string {
	return "user_profiles"
}

// ClonePreferences 返回偏好的副本，nil 时返回空映射。
func (p UserProfile) ClonePreferences() map[string]any {
	if p.Preferences == nil {
		return map[string]any{}
	}
	return maps.Clone(map[string]any(p.Preferences))
}
