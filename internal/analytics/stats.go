// Package analytics 在完整的历史记录上计算仪表盘、报告、建议、相关性与按月对比等统计。
// 所有函数都是纯函数，输入按日期升序排列的记录快照。
package analytics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wellnesslog/internal/wellness"
)

// metric 从记录中读取一个可能缺失的数值。
type metric func(e wellness.Entry) (float64, bool)

func fromFloat(get func(e wellness.Entry) *float64) metric {
	return func(e wellness.Entry) (float64, bool) {
		p := get(e)
		if p == nil {
			return 0, false
		}
		return *p, true
	}
}

func fromInt(get func(e wellness.Entry) *int) metric {
	return func(e wellness.Entry) (float64, bool) {
		p := get(e)
		if p == nil {
			return 0, false
		}
		return float64(*p), true
	}
}

var (
	wellnessMetric = fromFloat(func(e wellness.Entry) *float64 { return e.WellnessScore })
	stressMetric   = fromFloat(func(e wellness.Entry) *float64 { return e.AverageStress })
	sleepMetric    = fromFloat(func(e wellness.Entry) *float64 { return e.SleepHours })
	qualityMetric  = fromFloat(func(e wellness.Entry) *float64 { return e.SleepQuality })
	exerciseMetric = fromInt(func(e wellness.Entry) *int { return e.ExerciseMinutes })
	waterMetric    = fromInt(func(e wellness.Entry) *int { return e.WaterIntake })
)

// collect 取出所有非缺失值。
func collect(entries []wellness.Entry, m metric) []float64 {
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		if v, ok := m(e); ok {
			values = append(values, v)
		}
	}
	return values
}

// meanOf 忽略缺失值求均值，没有值时返回 0。
func meanOf(entries []wellness.Entry, m metric) float64 {
	values := collect(entries, m)
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func sumOf(entries []wellness.Entry, m metric) float64 {
	return floats.Sum(collect(entries, m))
}

// countWhere 统计满足条件的记录数。
func countWhere(entries []wellness.Entry, m metric, pred func(float64) bool) int {
	n := 0
	for _, v := range collect(entries, m) {
		if pred(v) {
			n++
		}
	}
	return n
}

func periodDays(entries []wellness.Entry) int {
	n := 0
	for _, e := range entries {
		if e.OnPeriod {
			n++
		}
	}
	return n
}

// tail 返回最后 n 条记录。
func tail(entries []wellness.Entry, n int) []wellness.Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func head(entries []wellness.Entry, n int) []wellness.Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[:n]
}
