package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wellnesslog/internal/wellness"
)

const (
	MinTrendEntries        = 3
	MinTrendMonthlyEntries = 14
)

// CorrelationMetrics 是参与相关性计算的字段，顺序即输出顺序。
var CorrelationMetrics = []string{
	"average_stress",
	"sleep_hours",
	"sleep_quality",
	"exercise_minutes",
	"water_intake",
	"wellness_score",
}

var metricsByName = map[string]metric{
	"average_stress":   stressMetric,
	"sleep_hours":      sleepMetric,
	"sleep_quality":    qualityMetric,
	"exercise_minutes": exerciseMetric,
	"water_intake":     waterMetric,
	"wellness_score":   wellnessMetric,
}

// Correlations 计算两两 Pearson 相关系数，只使用两个字段都存在的记录。
// 样本不足两条或任一方差为 0 时该组合缺省。
func Correlations(entries []wellness.Entry) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(CorrelationMetrics))
	for _, a := range CorrelationMetrics {
		row := make(map[string]float64, len(CorrelationMetrics))
		for _, b := range CorrelationMetrics {
			if r, ok := pearson(entries, metricsByName[a], metricsByName[b]); ok {
				row[b] = r
			}
		}
		out[a] = row
	}
	return out
}

func pearson(entries []wellness.Entry, ma, mb metric) (float64, bool) {
	var xs, ys []float64
	for _, e := range entries {
		x, okx := ma(e)
		y, oky := mb(e)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Trends 是趋势分析接口的结果。
type Trends struct {
	Correlations      map[string]map[string]float64 `json:"correlations"`
	MonthlyAggregates []MonthlyAggregate            `json:"monthly_aggregates,omitempty"`
}

// AnalyzeTrends 在至少 3 条记录时给出相关性，至少 14 条时附带按月统计。
func AnalyzeTrends(entries []wellness.Entry) (Trends, bool) {
	if len(entries) < MinTrendEntries {
		return Trends{}, false
	}
	t := Trends{Correlations: Correlations(entries)}
	if len(entries) >= MinTrendMonthlyEntries {
		t.MonthlyAggregates = MonthlyAggregates(entries)
	}
	return t, true
}
