package cycle

import "github.com/wellnesslog/internal/wellness"

// 症状可能性分级。
const (
	VeryLikely = "Very Likely"
	Likely     = "Likely"
	Possible   = "Possible"
	Unlikely   = "Unlikely"
)

// SymptomLikelihood 是某个症状在经期内出现的比例与分级。
type SymptomLikelihood struct {
	Percentage float64 `json:"percentage"`
	Category   string  `json:"category"`
}

// LikelihoodCategory 按百分比给出分级。
func LikelihoodCategory(pct float64) string {
	switch {
	case pct >= 70:
		return VeryLikely
	case pct >= 40:
		return Likely
	case pct >= 20:
		return Possible
	default:
		return Unlikely
	}
}

// ForecastSymptoms 统计每个症状在经期记录中为真的比例（保留一位小数）。
// 没有经期记录时返回空映射；只以假值出现过的症状记为 0%。
func ForecastSymptoms(entries []wellness.Entry) map[string]SymptomLikelihood {
	out := make(map[string]SymptomLikelihood)

	periodDays := 0
	counts := make(map[string]int)
	for _, e := range entries {
		if !e.OnPeriod {
			continue
		}
		periodDays++
		for name, present := range e.Symptoms {
			if present {
				counts[name]++
			} else if _, seen := counts[name]; !seen {
				counts[name] = 0
			}
		}
	}
	if periodDays == 0 {
		return out
	}

	for name, count := range counts {
		pct := wellness.Round1(float64(count) / float64(periodDays) * 100)
		out[name] = SymptomLikelihood{Percentage: pct, Category: LikelihoodCategory(pct)}
	}
	return out
}
