package cycle

import (
	"time"

	"github.com/wellnesslog/internal/wellness"
)

// Phase 是周期阶段。
type Phase string

const (
	PhaseMenstrual       Phase = "Menstrual"
	PhaseFollicular      Phase = "Follicular"
	PhaseOvulation       Phase = "Ovulation"
	PhaseLuteal          Phase = "Luteal"
	PhaseUnknown         Phase = "Unknown"
	PhasePredictedPeriod Phase = "Predicted Period"
)

// PhaseForDay 根据周期内的第几天（从 0 开始）给出阶段。
func PhaseForDay(day int) Phase {
	switch {
	case day <= 5:
		return PhaseMenstrual
	case day <= 13:
		return PhaseFollicular
	case day <= 17:
		return PhaseOvulation
	default:
		return PhaseLuteal
	}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// CurrentPhase 以最近一个经期日为起点、按 28 天周期推算 now 所处阶段。
// 没有任何经期记录时返回 Unknown。
func CurrentPhase(entries []wellness.Entry, now time.Time) Phase {
	var last time.Time
	found := false
	for _, e := range entries {
		if e.OnPeriod && (!found || e.Date.After(last)) {
			last = e.Date
			found = true
		}
	}
	if !found {
		return PhaseUnknown
	}
	return PhaseForDay(mod(daysBetween(last, now), DefaultCycleLength))
}

// CalendarDay 是周期日历中的一天。
type CalendarDay struct {
	Date  string `json:"date"`
	Phase Phase  `json:"phase"`
}

// Calendar 从 from 开始生成 days 天的周期日历。
// 预测日期前后置信半径内标记为 Predicted Period，其余按平均周期长度推算阶段。
func Calendar(p Prediction, from time.Time, days int) []CalendarDay {
	length := int(p.AvgCycleLength + 0.5)
	if length <= 0 {
		length = DefaultCycleLength
	}
	start := wellness.NormalizeDate(from)
	out := make([]CalendarDay, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		offset := daysBetween(p.PredictedDate, date)
		phase := PhaseForDay(mod(offset, length))
		if offset >= -p.ConfidenceRangeDays && offset <= p.ConfidenceRangeDays {
			phase = PhasePredictedPeriod
		}
		out = append(out, CalendarDay{Date: date.Format(wellness.DateLayout), Phase: phase})
	}
	return out
}
