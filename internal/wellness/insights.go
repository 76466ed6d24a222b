package wellness

import "math"

// 健康状态分级。
const (
	StatusExcellent      = "Excellent"
	StatusGood           = "Good"
	StatusFair           = "Fair"
	StatusNeedsAttention = "Needs Attention"
	StatusCritical       = "Critical - Consult Healthcare Provider"
)

// PredictEnergy 由健康评分、睡眠质量、压力与运动推算精力值，范围 [0, 100]。
func PredictEnergy(wellnessScore float64, e Entry) float64 {
	quality := ValueOr(e.SleepQuality, DefaultSleepQuality)
	stress := ValueOr(e.AverageStress, DefaultStress)
	exercise := float64(ValueOr(e.ExerciseMinutes, 0))

	energy := wellnessScore*0.4 + quality*8 + (10-stress)*4 + math.Min(exercise/3, 15)
	return Round1(Clamp(energy, 0, 100))
}

// HealthStatus 按评分阈值给出状态描述。
func HealthStatus(score float64) string {
	switch {
	case score >= 85:
		return StatusExcellent
	case score >= 70:
		return StatusGood
	case score >= 55:
		return StatusFair
	case score >= 40:
		return StatusNeedsAttention
	default:
		return StatusCritical
	}
}
