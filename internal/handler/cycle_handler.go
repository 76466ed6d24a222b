package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellnesslog/internal/analytics"
	"github.com/wellnesslog/internal/cycle"
	"github.com/wellnesslog/internal/wellness"
)

const (
	defaultCalendarDays = 60
	maxCalendarDays     = 366
	needCyclesMessage   = "Need at least 2 cycles tracked"
)

type cyclePredictionPayload struct {
	PredictedDate       string           `json:"predicted_date"`
	DaysUntil           int              `json:"days_until"`
	Confidence          string           `json:"confidence"`
	ConfidenceRangeDays int              `json:"confidence_range_days"`
	AvgCycleLength      float64          `json:"avg_cycle_length"`
	Regularity          cycle.Regularity `json:"cycle_regularity"`
	TotalCyclesTracked  int              `json:"total_cycles_tracked"`
	LastPeriodStart     string           `json:"last_period_start"`
	CycleLengths        []int            `json:"cycle_lengths"`
	CurrentPhase        cycle.Phase      `json:"current_phase"`
}

func cyclePredictionToPayload(p cycle.Prediction, phase cycle.Phase) cyclePredictionPayload {
	return cyclePredictionPayload{
		PredictedDate:       p.PredictedDate.Format(wellness.DateLayout),
		DaysUntil:           p.DaysUntil,
		Confidence:          p.Confidence,
		ConfidenceRangeDays: p.ConfidenceRangeDays,
		AvgCycleLength:      analytics.Round(p.AvgCycleLength, 1),
		Regularity:          p.Regularity,
		TotalCyclesTracked:  p.TotalCyclesTracked,
		LastPeriodStart:     p.LastPeriodStart.Format(wellness.DateLayout),
		CycleLengths:        p.CycleLengths,
		CurrentPhase:        phase,
	}
}

// PredictCycle 预测下一次经期
func (a *API) PredictCycle(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	now := a.now()
	prediction, ok := cycle.PredictNextPeriod(entries, now)
	if !ok {
		respondError(c, http.StatusBadRequest, needCyclesMessage)
		return
	}
	respondSuccess(c, http.StatusOK, cyclePredictionToPayload(prediction, cycle.CurrentPhase(entries, now)))
}

// SymptomForecast 返回各症状在经期出现的可能性
func (a *API) SymptomForecast(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, cycle.ForecastSymptoms(entries))
}

// CycleCalendar 返回未来若干天的周期阶段日历
func (a *API) CycleCalendar(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	days := queryInt(c, "days", defaultCalendarDays)
	if days > maxCalendarDays {
		days = maxCalendarDays
	}

	now := a.now()
	prediction, ok := cycle.PredictNextPeriod(entries, now)
	if !ok {
		respondError(c, http.StatusBadRequest, needCyclesMessage)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"predicted_date": prediction.PredictedDate.Format(wellness.DateLayout),
		"days":           cycle.Calendar(prediction, now, days),
	})
}
