// Package wellness 定义每日健康记录的规范结构，以及评分、特征与情绪分析等纯计算逻辑。
package wellness

import (
	"maps"
	"time"
)

// DateLayout 是记录日期在接口与导出中的统一格式。
const DateLayout = "2006-01-02"

// Entry 是一天的健康记录。
// 可选数值字段使用指针：nil 表示客户端未提供，提取特征时按约定默认值处理，
// 合并写入时也只覆盖非 nil 字段。
type Entry struct {
	Date   time.Time
	UserID string

	StressMorning   *float64
	StressAfternoon *float64
	StressNight     *float64
	AverageStress   *float64

	SleepHours      *float64
	SleepQuality    *float64
	ExerciseMinutes *int
	WaterIntake     *int

	OnPeriod   bool
	PeriodDay  *int
	CyclePhase string
	Symptoms   map[string]bool

	Breakfast string
	Lunch     string
	Dinner    string
	Snacks    string

	Notes           string
	AdditionalNotes string

	WellnessScore   *float64
	SentimentScore  float64
	PredictedEnergy *float64
}

// NormalizeDate 截断到 UTC 零点，保证 (user_id, date) 唯一键稳定。
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 按 DateLayout 解析日期。
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}

// DateString 返回 DateLayout 格式的日期。
func (e Entry) DateString() string {
	return e.Date.Format(DateLayout)
}

// RecomputeAverageStress 在三个时段压力均存在时重新计算平均压力。
// 返回是否发生了重算。
func (e *Entry) RecomputeAverageStress() bool {
	if e.StressMorning == nil || e.StressAfternoon == nil || e.StressNight == nil {
		return false
	}
	avg := (*e.StressMorning + *e.StressAfternoon + *e.StressNight) / 3.0
	e.AverageStress = &avg
	return true
}

// SymptomCount 统计为真的症状数量。
func (e Entry) SymptomCount() int {
	count := 0
	for _, present := range e.Symptoms {
		if present {
			count++
		}
	}
	return count
}

// NoteText 返回用于情绪分析的文本，优先使用补充备注。
func (e Entry) NoteText() string {
	if e.AdditionalNotes != "" {
		return e.AdditionalNotes
	}
	return e.Notes
}

// MergeFrom 将 incoming 中提供的字段合并到当前记录。
// 派生字段（平均压力、各类评分）不参与合并，由调用方在合并后重新计算。
func (e *Entry) MergeFrom(incoming Entry) {
	if incoming.StressMorning != nil {
		e.StressMorning = incoming.StressMorning
	}
	if incoming.StressAfternoon != nil {
		e.StressAfternoon = incoming.StressAfternoon
	}
	if incoming.StressNight != nil {
		e.StressNight = incoming.StressNight
	}
	if incoming.SleepHours != nil {
		e.SleepHours = incoming.SleepHours
	}
	if incoming.SleepQuality != nil {
		e.SleepQuality = incoming.SleepQuality
	}
	if incoming.ExerciseMinutes != nil {
		e.ExerciseMinutes = incoming.ExerciseMinutes
	}
	if incoming.WaterIntake != nil {
		e.WaterIntake = incoming.WaterIntake
	}
	if incoming.PeriodDay != nil {
		e.PeriodDay = incoming.PeriodDay
	}
	e.OnPeriod = incoming.OnPeriod
	if incoming.CyclePhase != "" {
		e.CyclePhase = incoming.CyclePhase
	}
	if incoming.Symptoms != nil {
		e.Symptoms = maps.Clone(incoming.Symptoms)
	}
	if incoming.Breakfast != "" {
		e.Breakfast = incoming.Breakfast
	}
	if incoming.Lunch != "" {
		e.Lunch = incoming.Lunch
	}
	if incoming.Dinner != "" {
		e.Dinner = incoming.Dinner
	}
	if incoming.Snacks != "" {
		e.Snacks = incoming.Snacks
	}
	if incoming.Notes != "" {
		e.Notes = incoming.Notes
	}
	if incoming.AdditionalNotes != "" {
		e.AdditionalNotes = incoming.AdditionalNotes
	}
}

// ValueOr 解引用指针，nil 时返回默认值。
func ValueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Ptr 返回值的指针，便于构造可选字段。
func Ptr[T any](v T) *T {
	return &v
}
