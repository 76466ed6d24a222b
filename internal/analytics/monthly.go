package analytics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wellnesslog/internal/wellness"
)

const monthLayout = "2006-01"

// MinComparativeEntries 是按月对比接口要求的最少记录数。
const MinComparativeEntries = 14

// MonthlyAggregate 是一个自然月的统计。
type MonthlyAggregate struct {
	Month        string  `json:"month"`
	Entries      int     `json:"entries"`
	WellnessMean float64 `json:"wellness_score_mean"`
	WellnessStd  float64 `json:"wellness_score_std"`
	WellnessMin  float64 `json:"wellness_score_min"`
	WellnessMax  float64 `json:"wellness_score_max"`
	StressMean   float64 `json:"average_stress_mean"`
	SleepMean    float64 `json:"sleep_hours_mean"`
	QualityMean  float64 `json:"sleep_quality_mean"`
	ExerciseMean float64 `json:"exercise_minutes_mean"`
	ExerciseSum  float64 `json:"exercise_minutes_sum"`
	WaterMean    float64 `json:"water_intake_mean"`
	PeriodDays   int     `json:"on_period_sum"`
}

type monthBucket struct {
	month   string
	entries []wellness.Entry
}

func groupByMonth(entries []wellness.Entry) []monthBucket {
	index := map[string]int{}
	var buckets []monthBucket
	for _, e := range entries {
		key := e.Date.Format(monthLayout)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, monthBucket{month: key})
		}
		buckets[i].entries = append(buckets[i].entries, e)
	}
	slices.SortFunc(buckets, func(a, b monthBucket) int {
		switch {
		case a.month < b.month:
			return -1
		case a.month > b.month:
			return 1
		default:
			return 0
		}
	})
	return buckets
}

// MonthlyAggregates 按自然月分组统计，结果按月份升序。
// 评分标准差为样本标准差，月内只有一条评分时为 0。
func MonthlyAggregates(entries []wellness.Entry) []MonthlyAggregate {
	buckets := groupByMonth(entries)
	out := make([]MonthlyAggregate, 0, len(buckets))
	for _, b := range buckets {
		scores := collect(b.entries, wellnessMetric)
		agg := MonthlyAggregate{
			Month:        b.month,
			Entries:      len(b.entries),
			StressMean:   meanOf(b.entries, stressMetric),
			SleepMean:    meanOf(b.entries, sleepMetric),
			QualityMean:  meanOf(b.entries, qualityMetric),
			ExerciseMean: meanOf(b.entries, exerciseMetric),
			ExerciseSum:  sumOf(b.entries, exerciseMetric),
			WaterMean:    meanOf(b.entries, waterMetric),
			PeriodDays:   periodDays(b.entries),
		}
		if len(scores) > 0 {
			agg.WellnessMean = stat.Mean(scores, nil)
			agg.WellnessMin = floats.Min(scores)
			agg.WellnessMax = floats.Max(scores)
		}
		if len(scores) > 1 {
			agg.WellnessStd = stat.StdDev(scores, nil)
		}
		out = append(out, agg)
	}
	return out
}

// MonthChange 是相邻两个月均值的差。
type MonthChange struct {
	Month            string  `json:"month"`
	WellnessChange   float64 `json:"wellness_change"`
	StressChange     float64 `json:"stress_change"`
	SleepChange      float64 `json:"sleep_change"`
	ExerciseChange   float64 `json:"exercise_change"`
	CurrentWellness  float64 `json:"current_wellness"`
	PreviousWellness float64 `json:"previous_wellness"`
}

// CycleImpact 对比同月经期与非经期的平均评分。
type CycleImpact struct {
	Month             string  `json:"month"`
	PeriodWellness    float64 `json:"period_wellness"`
	NonPeriodWellness float64 `json:"non_period_wellness"`
	Difference        float64 `json:"difference"`
}

// Comparison 是跨月对比的完整结果。
type Comparison struct {
	Months             []MonthlyAggregate `json:"monthly_stats"`
	Changes            []MonthChange      `json:"comparisons"`
	BestMonth          string             `json:"best_month"`
	WorstMonth         string             `json:"worst_month"`
	ImprovementPercent float64            `json:"improvement_percent"`
	CycleImpact        []CycleImpact      `json:"cycle_impact,omitempty"`
	AverageCycleImpact float64            `json:"average_cycle_impact"`
}

// CompareMonths 计算逐月变化。少于两个自然月时返回 false。
func CompareMonths(entries []wellness.Entry) (Comparison, bool) {
	months := MonthlyAggregates(entries)
	if len(months) < 2 {
		return Comparison{}, false
	}

	cmp := Comparison{Months: months}
	for i := 1; i < len(months); i++ {
		cur, prev := months[i], months[i-1]
		cmp.Changes = append(cmp.Changes, MonthChange{
			Month:            cur.Month,
			WellnessChange:   cur.WellnessMean - prev.WellnessMean,
			StressChange:     cur.StressMean - prev.StressMean,
			SleepChange:      cur.SleepMean - prev.SleepMean,
			ExerciseChange:   cur.ExerciseMean - prev.ExerciseMean,
			CurrentWellness:  cur.WellnessMean,
			PreviousWellness: prev.WellnessMean,
		})
	}

	best, worst := 0, 0
	for i, m := range months {
		if m.WellnessMean > months[best].WellnessMean {
			best = i
		}
		if m.WellnessMean < months[worst].WellnessMean {
			worst = i
		}
	}
	cmp.BestMonth = months[best].Month
	cmp.WorstMonth = months[worst].Month

	first, latest := months[0].WellnessMean, months[len(months)-1].WellnessMean
	if first != 0 {
		cmp.ImprovementPercent = (latest - first) / first * 100
	}

	cmp.CycleImpact = cycleImpact(entries)
	if len(cmp.CycleImpact) > 0 {
		diffs := make([]float64, len(cmp.CycleImpact))
		for i, c := range cmp.CycleImpact {
			diffs[i] = c.Difference
		}
		cmp.AverageCycleImpact = stat.Mean(diffs, nil)
	}
	return cmp, true
}

// cycleImpact 只统计同时包含经期与非经期记录的月份。
func cycleImpact(entries []wellness.Entry) []CycleImpact {
	var out []CycleImpact
	for _, b := range groupByMonth(entries) {
		var period, other []wellness.Entry
		for _, e := range b.entries {
			if e.OnPeriod {
				period = append(period, e)
			} else {
				other = append(other, e)
			}
		}
		if len(period) == 0 || len(other) == 0 {
			continue
		}
		pw := meanOf(period, wellnessMetric)
		nw := meanOf(other, wellnessMetric)
		out = append(out, CycleImpact{
			Month:             b.month,
			PeriodWellness:    pw,
			NonPeriodWellness: nw,
			Difference:        nw - pw,
		})
	}
	return out
}

// Round 保留 digits 位小数，供展示层使用。
func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
