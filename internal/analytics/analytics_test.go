package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellnesslog/internal/cycle"
	"github.com/wellnesslog/internal/wellness"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func entry(offset int, score float64) wellness.Entry {
	return wellness.Entry{
		Date:            start.AddDate(0, 0, offset),
		WellnessScore:   wellness.Ptr(score),
		AverageStress:   wellness.Ptr(4.0),
		SleepHours:      wellness.Ptr(8.0),
		SleepQuality:    wellness.Ptr(7.0),
		ExerciseMinutes: wellness.Ptr(30),
		WaterIntake:     wellness.Ptr(2000),
	}
}

func series(days int, score func(i int) float64) []wellness.Entry {
	out := make([]wellness.Entry, days)
	for i := range out {
		out[i] = entry(i, score(i))
	}
	return out
}

func TestMonthlyAggregates(t *testing.T) {
	entries := []wellness.Entry{entry(0, 60), entry(1, 70), entry(2, 80), entry(40, 50)}
	entries[1].OnPeriod = true
	entries[3].SleepHours = nil

	got := MonthlyAggregates(entries)
	require.Len(t, got, 2)

	jan := got[0]
	assert.Equal(t, "2024-01", jan.Month)
	assert.Equal(t, 3, jan.Entries)
	assert.InDelta(t, 70.0, jan.WellnessMean, 1e-9)
	assert.InDelta(t, 10.0, jan.WellnessStd, 1e-9)
	assert.Equal(t, 60.0, jan.WellnessMin)
	assert.Equal(t, 80.0, jan.WellnessMax)
	assert.Equal(t, 90.0, jan.ExerciseSum)
	assert.Equal(t, 1, jan.PeriodDays)

	feb := got[1]
	assert.Equal(t, "2024-02", feb.Month)
	assert.Equal(t, 0.0, feb.WellnessStd)
	assert.Equal(t, 0.0, feb.SleepMean)
}

func TestCompareMonthsNeedsTwoMonths(t *testing.T) {
	_, ok := CompareMonths(series(20, func(int) float64 { return 70 }))
	assert.False(t, ok)

	_, ok = CompareMonths(nil)
	assert.False(t, ok)
}

func TestCompareMonths(t *testing.T) {
	// 1 月评分 60，2 月 75（经期 4 天为 65），3 月 66
	entries := series(91, func(i int) float64 {
		switch {
		case i < 31:
			return 60
		case i < 60:
			return 75
		default:
			return 66
		}
	})
	for i := 31; i < 35; i++ {
		entries[i].OnPeriod = true
		entries[i].WellnessScore = wellness.Ptr(65.0)
	}

	cmp, ok := CompareMonths(entries)
	require.True(t, ok)
	require.Len(t, cmp.Months, 3)
	require.Len(t, cmp.Changes, 2)

	assert.Equal(t, "2024-02", cmp.Changes[0].Month)
	assert.Equal(t, "2024-02", cmp.BestMonth)
	assert.Equal(t, "2024-01", cmp.WorstMonth)
	assert.InDelta(t, 10.0, cmp.ImprovementPercent, 1e-9)

	require.Len(t, cmp.CycleImpact, 1)
	impact := cmp.CycleImpact[0]
	assert.Equal(t, "2024-02", impact.Month)
	assert.Equal(t, 65.0, impact.PeriodWellness)
	assert.Equal(t, 75.0, impact.NonPeriodWellness)
	assert.Equal(t, 10.0, impact.Difference)
	assert.Equal(t, 10.0, cmp.AverageCycleImpact)
}

func TestDashboard(t *testing.T) {
	assert.Equal(t, DashboardStats{}, Dashboard(nil))

	entries := series(10, func(i int) float64 { return float64(i * 10) })
	got := Dashboard(entries)
	assert.Equal(t, 10, got.TotalEntries)
	assert.Equal(t, 60.0, got.AvgWellness)
	assert.Equal(t, 8.0, got.AvgSleep)
	assert.Equal(t, 30.0, got.AvgExercise)
	assert.Equal(t, 4.0, got.AvgStress)
}

func TestBuildChartsKeepsMissingValues(t *testing.T) {
	entries := series(2, func(int) float64 { return 50 })
	entries[1].WaterIntake = nil

	c := BuildCharts(entries)
	require.Len(t, c.WaterData, 2)
	assert.Equal(t, "2024-01-02", c.WaterData[1].Date)
	assert.Nil(t, c.WaterData[1].Intake)
	assert.Equal(t, 2000, *c.WaterData[0].Intake)
}

func TestWeeklyReport(t *testing.T) {
	_, ok := Weekly(series(2, func(int) float64 { return 50 }))
	assert.False(t, ok)

	entries := series(10, func(i int) float64 { return 50 + float64(i) })
	entries[9].OnPeriod = true
	r, ok := Weekly(entries)
	require.True(t, ok)

	assert.Equal(t, "2024-01-04", r.StartDate)
	assert.Equal(t, "2024-01-10", r.EndDate)
	assert.Len(t, r.Days, 7)
	assert.Equal(t, TrendImproving, r.Trend)
	assert.Equal(t, 210.0, r.TotalExercise)
	assert.Equal(t, 1, r.PeriodDays)

	titles := make([]string, 0, len(r.Insights))
	for _, in := range r.Insights {
		titles = append(titles, in.Title)
	}
	assert.Equal(t, []string{"Excellent Sleep", "Exercise Goal Achieved", "Low Stress", "Menstrual Phase"}, titles)
	assert.Equal(t, []string{"Focus on consistency: Track your data daily for better insights"}, r.ActionItems)
}

func TestWeeklyReportTrendNeedsFourEntries(t *testing.T) {
	r, ok := Weekly(series(3, func(i int) float64 { return float64(90 - i*10) }))
	require.True(t, ok)
	assert.Equal(t, TrendStable, r.Trend)
}

func TestMonthlyReport(t *testing.T) {
	_, ok := Monthly(series(6, func(int) float64 { return 80 }))
	assert.False(t, ok)

	r, ok := Monthly(series(40, func(int) float64 { return 80 }))
	require.True(t, ok)
	assert.Equal(t, 30, r.TotalEntries)
	assert.Equal(t, 900.0, r.TotalExercise)
	assert.Equal(t, []string{
		"Completed 600+ minutes of exercise",
		"Had good sleep (7+ hours) for 20+ days",
		"Stayed well-hydrated for 20+ days",
		"Maintained wellness score above 70",
		"Consistent tracking (25+ entries)",
	}, r.Achievements)
	assert.Equal(t, []string{"Maintain wellness score above 70"}, r.Goals)
}

func TestRecommend(t *testing.T) {
	_, ok := Recommend(nil, start)
	assert.False(t, ok)

	entries := series(7, func(int) float64 { return 50 })
	for i := range entries {
		entries[i].SleepHours = wellness.Ptr(6.0)
		entries[i].AverageStress = wellness.Ptr(8.0)
		entries[i].ExerciseMinutes = wellness.Ptr(10)
		entries[i].WaterIntake = wellness.Ptr(1000)
	}
	entries[6].OnPeriod = true
	entries[6].Symptoms = map[string]bool{"back_pain": true, "cramping": true, "nausea": false, "glitter": true}

	r, ok := Recommend(entries, entries[6].Date.AddDate(0, 0, 2))
	require.True(t, ok)

	require.Len(t, r.Priorities, 3)
	assert.Equal(t, "sleep", r.Priorities[0].Area)
	assert.Equal(t, "stress", r.Priorities[1].Area)
	assert.Equal(t, "exercise", r.Priorities[2].Area)

	assert.Equal(t, cycle.PhaseMenstrual, r.CurrentPhase)
	assert.Equal(t, NutritionFor(cycle.PhaseMenstrual), r.Nutrition)
	assert.Equal(t, "Gentle yoga or yin yoga", r.Activities.Body[0])
	assert.Equal(t, "10-minute guided meditation", r.Activities.Mind[0])

	require.Len(t, r.SymptomAdvice, 2)
	assert.Equal(t, "Back Pain", r.SymptomAdvice[0].Name)
	assert.Equal(t, "cramping", r.SymptomAdvice[1].Symptom)

	assert.Contains(t, r.Encouragement, "kind to yourself")
}

func TestNutritionForUnknownPhase(t *testing.T) {
	assert.Equal(t, "Balanced, whole-food nutrition", NutritionFor(cycle.PhasePredictedPeriod).Focus)
}

func TestCorrelations(t *testing.T) {
	entries := series(5, func(i int) float64 { return float64(50 + 10*i) })
	for i := range entries {
		entries[i].SleepHours = wellness.Ptr(5.0 + float64(i))
		entries[i].AverageStress = wellness.Ptr(9.0 - float64(i))
	}

	got := Correlations(entries)
	assert.InDelta(t, 1.0, got["sleep_hours"]["wellness_score"], 1e-9)
	assert.InDelta(t, -1.0, got["average_stress"]["wellness_score"], 1e-9)
	assert.InDelta(t, 1.0, got["wellness_score"]["wellness_score"], 1e-9)

	// 运动时长恒定，方差为 0
	assert.NotContains(t, got["exercise_minutes"], "wellness_score")
}

func TestAnalyzeTrends(t *testing.T) {
	_, ok := AnalyzeTrends(series(2, func(int) float64 { return 50 }))
	assert.False(t, ok)

	small, ok := AnalyzeTrends(series(5, func(i int) float64 { return float64(i) }))
	require.True(t, ok)
	assert.Nil(t, small.MonthlyAggregates)

	full, ok := AnalyzeTrends(series(40, func(i int) float64 { return float64(i) }))
	require.True(t, ok)
	assert.Len(t, full.MonthlyAggregates, 2)
}
