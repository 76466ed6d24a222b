package wellness

// 特征提取时使用的默认值。
const (
	DefaultStress       = 5.0
	DefaultSleepQuality = 5.0
	DefaultWellness     = 50.0

	// 序列特征中缺失睡眠时长按 7 小时计。
	DefaultSequenceSleepHours = 7.0
)

// FeatureCount 是评分特征向量的长度。
const FeatureCount = 7

// Features 是评分模型使用的定长特征向量，顺序为：
// 平均压力、运动分钟、饮水（升）、睡眠时长、睡眠质量、症状数量、是否经期。
type Features [FeatureCount]float64

// SequenceFeatureCount 是时间序列模型每一步的特征维度。
const SequenceFeatureCount = 6

// SequenceFeatures 顺序为：平均压力、睡眠时长、睡眠质量、运动分钟、饮水（毫升）、健康评分。
type SequenceFeatures [SequenceFeatureCount]float64

// ExtractFeatures 将记录转换为评分特征向量，缺失字段使用默认值。
func ExtractFeatures(e Entry) Features {
	period := 0.0
	if e.OnPeriod {
		period = 1
	}
	return Features{
		ValueOr(e.AverageStress, DefaultStress),
		float64(ValueOr(e.ExerciseMinutes, 0)),
		float64(ValueOr(e.WaterIntake, 0)) / 1000.0,
		ValueOr(e.SleepHours, 0),
		ValueOr(e.SleepQuality, DefaultSleepQuality),
		float64(e.SymptomCount()),
		period,
	}
}

// ExtractSequenceFeatures 生成时间序列模型的单步输入。
func ExtractSequenceFeatures(e Entry) SequenceFeatures {
	return SequenceFeatures{
		ValueOr(e.AverageStress, DefaultStress),
		ValueOr(e.SleepHours, DefaultSequenceSleepHours),
		ValueOr(e.SleepQuality, DefaultSleepQuality),
		float64(ValueOr(e.ExerciseMinutes, 0)),
		float64(ValueOr(e.WaterIntake, 0)),
		ValueOr(e.WellnessScore, DefaultWellness),
	}
}
