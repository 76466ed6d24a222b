package analytics

import (
	"fmt"

	"github.com/wellnesslog/internal/wellness"
)

const (
	WeeklyWindow        = 7
	MinWeeklyEntries    = 3
	MonthlyWindow       = 30
	MinMonthlyEntries   = 7
	weeklyExerciseGoal  = 150
	monthlyExerciseGoal = 600
	waterGoal           = 2000
)

// 洞察类型。
const (
	InsightSuccess = "success"
	InsightWarning = "warning"
	InsightInfo    = "info"
)

// 评分走势。
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Insight 是报告中的一条观察。
type Insight struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// DaySummary 是周报逐日明细的一行。
type DaySummary struct {
	Date     string   `json:"date"`
	Wellness *float64 `json:"wellness_score"`
	Sleep    *float64 `json:"sleep_hours"`
	Exercise *int     `json:"exercise_minutes"`
	Stress   *float64 `json:"average_stress"`
	Water    *int     `json:"water_intake"`
}

// WeeklyReport 汇总最近 7 条记录。
type WeeklyReport struct {
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
	AvgWellness   float64      `json:"avg_wellness"`
	AvgStress     float64      `json:"avg_stress"`
	AvgSleep      float64      `json:"avg_sleep"`
	AvgExercise   float64      `json:"avg_exercise"`
	TotalExercise float64      `json:"total_exercise"`
	AvgWater      float64      `json:"avg_water"`
	PeriodDays    int          `json:"period_days"`
	Trend         string       `json:"trend"`
	Insights      []Insight    `json:"insights"`
	Days          []DaySummary `json:"days"`
	ActionItems   []string     `json:"action_items"`
}

// Weekly 生成周报。记录少于 MinWeeklyEntries 时返回 false。
func Weekly(entries []wellness.Entry) (WeeklyReport, bool) {
	if len(entries) < MinWeeklyEntries {
		return WeeklyReport{}, false
	}
	recent := tail(entries, WeeklyWindow)

	r := WeeklyReport{
		StartDate:     recent[0].DateString(),
		EndDate:       recent[len(recent)-1].DateString(),
		AvgWellness:   meanOf(recent, wellnessMetric),
		AvgStress:     meanOf(recent, stressMetric),
		AvgSleep:      meanOf(recent, sleepMetric),
		AvgExercise:   meanOf(recent, exerciseMetric),
		TotalExercise: sumOf(recent, exerciseMetric),
		AvgWater:      meanOf(recent, waterMetric),
		PeriodDays:    periodDays(recent),
		Trend:         TrendStable,
	}

	if len(recent) >= 4 {
		first := meanOf(head(recent, 3), wellnessMetric)
		last := meanOf(tail(recent, 3), wellnessMetric)
		switch {
		case last > first:
			r.Trend = TrendImproving
		case last < first:
			r.Trend = TrendDeclining
		}
	}

	r.Insights = weeklyInsights(r)
	r.ActionItems = weeklyActions(r)

	r.Days = make([]DaySummary, 0, len(recent))
	for _, e := range recent {
		r.Days = append(r.Days, DaySummary{
			Date:     e.DateString(),
			Wellness: e.WellnessScore,
			Sleep:    e.SleepHours,
			Exercise: e.ExerciseMinutes,
			Stress:   e.AverageStress,
			Water:    e.WaterIntake,
		})
	}
	return r, true
}

func weeklyInsights(r WeeklyReport) []Insight {
	var out []Insight

	switch {
	case r.AvgSleep < 7:
		out = append(out, Insight{
			Title:   "Sleep Deficit",
			Message: fmt.Sprintf("You averaged %.1f hours of sleep. Aim for 7-9 hours for optimal health.", r.AvgSleep),
			Type:    InsightWarning,
		})
	case r.AvgSleep <= 9:
		out = append(out, Insight{
			Title:   "Excellent Sleep",
			Message: fmt.Sprintf("Great job! You're getting %.1f hours of sleep on average.", r.AvgSleep),
			Type:    InsightSuccess,
		})
	}

	if r.TotalExercise >= weeklyExerciseGoal {
		out = append(out, Insight{
			Title:   "Exercise Goal Achieved",
			Message: fmt.Sprintf("You completed %.0f minutes of exercise this week! WHO recommends 150+ minutes.", r.TotalExercise),
			Type:    InsightSuccess,
		})
	} else {
		out = append(out, Insight{
			Title:   "Increase Activity",
			Message: fmt.Sprintf("You exercised for %.0f minutes. Target is 150 minutes per week.", r.TotalExercise),
			Type:    InsightInfo,
		})
	}

	switch {
	case r.AvgStress > 6:
		out = append(out, Insight{
			Title:   "High Stress Levels",
			Message: fmt.Sprintf("Your stress levels are elevated (%.1f/10). Consider stress-reduction techniques.", r.AvgStress),
			Type:    InsightWarning,
		})
	case r.AvgStress <= 4:
		out = append(out, Insight{
			Title:   "Low Stress",
			Message: fmt.Sprintf("Your stress levels are well-managed (%.1f/10). Keep it up!", r.AvgStress),
			Type:    InsightSuccess,
		})
	}

	if r.AvgWater < waterGoal {
		out = append(out, Insight{
			Title:   "Hydration Needed",
			Message: fmt.Sprintf("Average water intake: %.0fml. Aim for 2000ml daily.", r.AvgWater),
			Type:    InsightInfo,
		})
	}

	if r.PeriodDays > 0 {
		out = append(out, Insight{
			Title:   "Menstrual Phase",
			Message: fmt.Sprintf("You menstruated for %d day(s) this week. Extra self-care is important.", r.PeriodDays),
			Type:    InsightInfo,
		})
	}
	return out
}

func weeklyActions(r WeeklyReport) []string {
	out := []string{}
	if r.AvgSleep < 7 {
		out = append(out, "Prioritize sleep: Set a consistent bedtime and wake-up time")
	}
	if r.TotalExercise < weeklyExerciseGoal {
		out = append(out, "Increase movement: Add 10-15 minutes of activity to your daily routine")
	}
	if r.AvgStress > 5 {
		out = append(out, "Manage stress: Practice meditation or deep breathing for 10 minutes daily")
	}
	if r.AvgWater < waterGoal {
		out = append(out, "Hydrate better: Keep a water bottle handy and set reminders")
	}
	if r.AvgWellness < 70 {
		out = append(out, "Focus on consistency: Track your data daily for better insights")
	}
	return out
}

// MonthlyReport 汇总最近 30 条记录。
type MonthlyReport struct {
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	TotalEntries  int      `json:"total_entries"`
	AvgWellness   float64  `json:"avg_wellness"`
	TotalExercise float64  `json:"total_exercise"`
	AvgSleep      float64  `json:"avg_sleep"`
	PeriodDays    int      `json:"period_days"`
	AvgStress     float64  `json:"avg_stress"`
	Achievements  []string `json:"achievements"`
	Goals         []string `json:"goals"`
}

// Monthly 生成月报。记录少于 MinMonthlyEntries 时返回 false。
func Monthly(entries []wellness.Entry) (MonthlyReport, bool) {
	if len(entries) < MinMonthlyEntries {
		return MonthlyReport{}, false
	}
	recent := tail(entries, MonthlyWindow)

	r := MonthlyReport{
		StartDate:     recent[0].DateString(),
		EndDate:       recent[len(recent)-1].DateString(),
		TotalEntries:  len(recent),
		AvgWellness:   meanOf(recent, wellnessMetric),
		TotalExercise: sumOf(recent, exerciseMetric),
		AvgSleep:      meanOf(recent, sleepMetric),
		PeriodDays:    periodDays(recent),
		AvgStress:     meanOf(recent, stressMetric),
		Achievements:  []string{},
	}

	if r.TotalExercise >= monthlyExerciseGoal {
		r.Achievements = append(r.Achievements, "Completed 600+ minutes of exercise")
	}
	if countWhere(recent, sleepMetric, func(v float64) bool { return v >= 7 }) >= 20 {
		r.Achievements = append(r.Achievements, "Had good sleep (7+ hours) for 20+ days")
	}
	if countWhere(recent, waterMetric, func(v float64) bool { return v >= waterGoal }) >= 20 {
		r.Achievements = append(r.Achievements, "Stayed well-hydrated for 20+ days")
	}
	if r.AvgWellness >= 70 {
		r.Achievements = append(r.Achievements, "Maintained wellness score above 70")
	}
	if r.TotalEntries >= 25 {
		r.Achievements = append(r.Achievements, "Consistent tracking (25+ entries)")
	}

	if r.AvgWellness < 70 {
		r.Goals = append(r.Goals, "Increase average wellness score to 70+")
	} else {
		r.Goals = append(r.Goals, "Maintain wellness score above 70")
	}
	if r.TotalExercise < monthlyExerciseGoal {
		r.Goals = append(r.Goals, "Reach 600 minutes of exercise per month")
	}
	if r.AvgStress > 5 {
		r.Goals = append(r.Goals, "Reduce average stress level below 5")
	}
	if r.AvgSleep < 7.5 {
		r.Goals = append(r.Goals, "Increase average sleep to 7.5+ hours")
	}
	return r, true
}
