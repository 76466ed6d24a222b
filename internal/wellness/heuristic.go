package wellness

import "math"

// HeuristicScore 按规则计算 0-100 的健康评分，同时作为评分模型的训练标签。
// 基础分 50，依次叠加睡眠、压力、运动、饮水、症状与情绪分量，最终截断并保留一位小数。
func HeuristicScore(e Entry) float64 {
	f := ExtractFeatures(e)
	stress := f[0]
	exercise := f[1]
	water := float64(ValueOr(e.WaterIntake, 0))
	sleepHours := f[3]
	sleepQuality := f[4]
	symptoms := f[5]

	score := 50.0
	score += sleepComponent(sleepHours, sleepQuality)
	score -= ((stress - 1) / 9) * 20
	score += exerciseComponent(exercise)
	score += hydrationComponent(water)
	score -= math.Min(symptoms*2, 15)
	score += e.SentimentScore * 10

	return Round1(Clamp(score, 0, 100))
}

func sleepComponent(hours, quality float64) float64 {
	var points float64
	switch {
	case hours >= 7 && hours <= 9:
		points = 15
	case (hours >= 6 && hours < 7) || (hours > 9 && hours <= 10):
		points = 10
	default:
		points = 5
	}
	return points + (quality/10)*5
}

func exerciseComponent(minutes float64) float64 {
	switch {
	case minutes >= 30:
		return 15
	case minutes >= 20:
		return 10
	case minutes >= 10:
		return 5
	default:
		return 0
	}
}

func hydrationComponent(ml float64) float64 {
	switch {
	case ml >= 2000:
		return 10
	case ml >= 1500:
		return 7
	case ml >= 1000:
		return 4
	default:
		return 0
	}
}

// Clamp 将值限制在 [lo, hi]。
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round1 四舍五入保留一位小数。
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
