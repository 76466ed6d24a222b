// Package cycle 根据经期记录推算周期长度、规律性与下一次经期，并统计经期症状出现的概率。
package cycle

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wellnesslog/internal/wellness"
)

// 周期长度的合理区间（天），区间外的周期不参与平均。
const (
	MinCycleLength     = 21
	MaxCycleLength     = 35
	DefaultCycleLength = 28
	// MinStarts 是给出预测所需的最少经期开始次数。
	MinStarts = 2
)

// Regularity 是周期规律性分级。
type Regularity string

const (
	VeryRegular       Regularity = "Very Regular"
	Regular           Regularity = "Regular"
	SomewhatIrregular Regularity = "Somewhat Irregular"
	Irregular         Regularity = "Irregular"
	Unknown           Regularity = "Unknown"
)

// Confidence 返回规律性对应的置信度标签与误差天数。Unknown 按 Low ±5 处理。
func (r Regularity) Confidence() (string, int) {
	switch r {
	case VeryRegular:
		return "High", 1
	case Regular:
		return "Good", 2
	case SomewhatIrregular:
		return "Moderate", 3
	default:
		return "Low", 5
	}
}

func classify(std float64) Regularity {
	switch {
	case std <= 2:
		return VeryRegular
	case std <= 4:
		return Regular
	case std <= 7:
		return SomewhatIrregular
	default:
		return Irregular
	}
}

// Prediction 是下一次经期的预测结果。
type Prediction struct {
	PredictedDate       time.Time  `json:"predicted_date"`
	DaysUntil           int        `json:"days_until"`
	Confidence          string     `json:"confidence"`
	ConfidenceRangeDays int        `json:"confidence_range_days"`
	AvgCycleLength      float64    `json:"avg_cycle_length"`
	Regularity          Regularity `json:"cycle_regularity"`
	TotalCyclesTracked  int        `json:"total_cycles_tracked"`
	LastPeriodStart     time.Time  `json:"last_period_start"`
	CycleLengths        []int      `json:"cycle_lengths"`
}

func sortedByDate(entries []wellness.Entry) []wellness.Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b wellness.Entry) int {
		return a.Date.Compare(b.Date)
	})
	return sorted
}

// PeriodStarts 按日期顺序扫描 on_period，返回每次由否转是的日期。
// 第一条记录即处于经期时也算作一次开始。
func PeriodStarts(entries []wellness.Entry) []time.Time {
	var starts []time.Time
	inPeriod := false
	for _, e := range sortedByDate(entries) {
		switch {
		case e.OnPeriod && !inPeriod:
			starts = append(starts, wellness.NormalizeDate(e.Date))
			inPeriod = true
		case !e.OnPeriod:
			inPeriod = false
		}
	}
	return starts
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(wellness.NormalizeDate(to).Sub(wellness.NormalizeDate(from)).Hours() / 24))
}

// PredictNextPeriod 预测下一次经期。少于两次经期开始时返回 false。
// 超出 [21, 35] 的周期被排除在平均值之外，但对应的开始日期仍参与后续差分，
// 因此 TotalCyclesTracked 可能大于参与统计的周期数。
func PredictNextPeriod(entries []wellness.Entry, now time.Time) (Prediction, bool) {
	starts := PeriodStarts(entries)
	if len(starts) < MinStarts {
		return Prediction{}, false
	}

	lengths := []int{}
	for i := 1; i < len(starts); i++ {
		length := daysBetween(starts[i-1], starts[i])
		if length >= MinCycleLength && length <= MaxCycleLength {
			lengths = append(lengths, length)
		}
	}

	avg := float64(DefaultCycleLength)
	regularity := Unknown
	if len(lengths) > 0 {
		values := make([]float64, len(lengths))
		for i, l := range lengths {
			values[i] = float64(l)
		}
		var std float64
		avg, std = stat.PopMeanStdDev(values, nil)
		if len(values) == 1 {
			std = 0
		}
		regularity = classify(std)
	}

	last := starts[len(starts)-1]
	predicted := last.AddDate(0, 0, int(math.Round(avg)))
	label, radius := regularity.Confidence()

	return Prediction{
		PredictedDate:       predicted,
		DaysUntil:           daysBetween(now, predicted),
		Confidence:          label,
		ConfidenceRangeDays: radius,
		AvgCycleLength:      avg,
		Regularity:          regularity,
		TotalCyclesTracked:  len(starts),
		LastPeriodStart:     last,
		CycleLengths:        lengths,
	}, true
}
