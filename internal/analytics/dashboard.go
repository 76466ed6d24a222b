package analytics

import "github.com/wellnesslog/internal/wellness"

// DashboardWindow 是仪表盘统计使用的最近记录条数。
const DashboardWindow = 7

// DashboardStats 是最近一周的均值概览。
type DashboardStats struct {
	AvgWellness  float64 `json:"avg_wellness"`
	AvgSleep     float64 `json:"avg_sleep"`
	AvgExercise  float64 `json:"avg_exercise"`
	AvgStress    float64 `json:"avg_stress"`
	TotalEntries int     `json:"total_entries"`
}

// Dashboard 统计最近 7 条记录的均值，没有记录时各项为 0。
func Dashboard(entries []wellness.Entry) DashboardStats {
	recent := tail(entries, DashboardWindow)
	return DashboardStats{
		AvgWellness:  Round(meanOf(recent, wellnessMetric), 1),
		AvgSleep:     Round(meanOf(recent, sleepMetric), 1),
		AvgExercise:  Round(meanOf(recent, exerciseMetric), 1),
		AvgStress:    Round(meanOf(recent, stressMetric), 1),
		TotalEntries: len(entries),
	}
}

type ScorePoint struct {
	Date  string   `json:"date"`
	Score *float64 `json:"score"`
}

type StressPoint struct {
	Date      string   `json:"date"`
	Morning   *float64 `json:"morning"`
	Afternoon *float64 `json:"afternoon"`
	Night     *float64 `json:"night"`
}

type SleepPoint struct {
	Date    string   `json:"date"`
	Hours   *float64 `json:"hours"`
	Quality *float64 `json:"quality"`
}

type ExercisePoint struct {
	Date    string `json:"date"`
	Minutes *int   `json:"minutes"`
}

type WaterPoint struct {
	Date   string `json:"date"`
	Intake *int   `json:"intake"`
}

// Charts 是前端图表使用的逐日序列，缺失值保持为 null。
type Charts struct {
	WellnessScores []ScorePoint    `json:"wellness_scores"`
	StressLevels   []StressPoint   `json:"stress_levels"`
	SleepData      []SleepPoint    `json:"sleep_data"`
	ExerciseData   []ExercisePoint `json:"exercise_data"`
	WaterData      []WaterPoint    `json:"water_data"`
}

// BuildCharts 按记录顺序生成各项序列。
func BuildCharts(entries []wellness.Entry) Charts {
	c := Charts{
		WellnessScores: make([]ScorePoint, 0, len(entries)),
		StressLevels:   make([]StressPoint, 0, len(entries)),
		SleepData:      make([]SleepPoint, 0, len(entries)),
		ExerciseData:   make([]ExercisePoint, 0, len(entries)),
		WaterData:      make([]WaterPoint, 0, len(entries)),
	}
	for _, e := range entries {
		date := e.DateString()
		c.WellnessScores = append(c.WellnessScores, ScorePoint{Date: date, Score: e.WellnessScore})
		c.StressLevels = append(c.StressLevels, StressPoint{
			Date:      date,
			Morning:   e.StressMorning,
			Afternoon: e.StressAfternoon,
			Night:     e.StressNight,
		})
		c.SleepData = append(c.SleepData, SleepPoint{Date: date, Hours: e.SleepHours, Quality: e.SleepQuality})
		c.ExerciseData = append(c.ExerciseData, ExercisePoint{Date: date, Minutes: e.ExerciseMinutes})
		c.WaterData = append(c.WaterData, WaterPoint{Date: date, Intake: e.WaterIntake})
	}
	return c
}
