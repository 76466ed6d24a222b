package wellness

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// 客户端字段名到规范字段名的映射，只在边界处翻译一次。
var stressAliases = map[string]string{
	"morning_stress":   "stress_morning",
	"afternoon_stress": "stress_afternoon",
	"night_stress":     "stress_night",
}

// Float 尝试把任意值转换为 float64。
// 字符串、数字、布尔均可接受；nil、空串、无法解析或非有限值返回 ok=false。
func Float(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		if v {
			f = 1
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case fmt.Stringer:
		return Float(v.String())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FloatOr 转换失败时返回 fallback。
func FloatOr(value any, fallback float64) float64 {
	if f, ok := Float(value); ok {
		return f
	}
	return fallback
}

// Int 转换为 int，小数部分截断。记录里的计数字段都不会为负，
// 超出 [0, math.MaxInt32] 的值视为无法解析。
func Int(value any) (int, bool) {
	f, ok := measure(value)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// measure 只接受 [0, math.MaxInt32] 内的有限值。
func measure(value any) (float64, bool) {
	f, ok := Float(value)
	if !ok || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return f, true
}

// Truthy 按常见的真值规则转换布尔值。
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "no", "off", "n", "null", "none":
			return false
		default:
			return true
		}
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		f, ok := Float(v)
		return ok && f != 0
	}
}

func optionalFloat(raw map[string]any, key string) *float64 {
	value, exists := raw[key]
	if !exists {
		return nil
	}
	f, ok := measure(value)
	if !ok {
		return nil
	}
	return &f
}

func optionalInt(raw map[string]any, key string) *int {
	value, exists := raw[key]
	if !exists {
		return nil
	}
	i, ok := Int(value)
	if !ok {
		return nil
	}
	return &i
}

func stringField(raw map[string]any, key string) string {
	value, exists := raw[key]
	if !exists || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// ParseSymptoms 将任意形态的症状字段转换为 name -> bool。
// 支持对象（值按真值判断）与字符串数组（出现即为真）。
func ParseSymptoms(value any) map[string]bool {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]bool, len(v))
		for name, flag := range v {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			out[name] = Truthy(flag)
		}
		return out
	case map[string]bool:
		out := make(map[string]bool, len(v))
		for name, flag := range v {
			out[name] = flag
		}
		return out
	case []any:
		out := make(map[string]bool, len(v))
		for _, item := range v {
			if name, ok := item.(string); ok && strings.TrimSpace(name) != "" {
				out[strings.TrimSpace(name)] = true
			}
		}
		return out
	case []string:
		out := make(map[string]bool, len(v))
		for _, name := range v {
			if strings.TrimSpace(name) != "" {
				out[strings.TrimSpace(name)] = true
			}
		}
		return out
	default:
		return nil
	}
}

// ParseEntry 把客户端提交的松散键值映射转换为规范记录。
// 压力字段的两套命名在这里统一为 stress_*；派生字段（平均压力、各类评分）一律忽略，
// 由服务端重新计算。date 缺失或无法解析时使用 now 所在的日期。
func ParseEntry(raw map[string]any, now time.Time) Entry {
	normalized := make(map[string]any, len(raw))
	for key, value := range raw {
		if canonical, ok := stressAliases[key]; ok {
			if _, exists := raw[canonical]; exists {
				continue
			}
			key = canonical
		}
		normalized[key] = value
	}

	entry := Entry{
		Date:            NormalizeDate(now),
		UserID:          stringField(normalized, "user_id"),
		StressMorning:   optionalFloat(normalized, "stress_morning"),
		StressAfternoon: optionalFloat(normalized, "stress_afternoon"),
		StressNight:     optionalFloat(normalized, "stress_night"),
		SleepHours:      optionalFloat(normalized, "sleep_hours"),
		SleepQuality:    optionalFloat(normalized, "sleep_quality"),
		ExerciseMinutes: optionalInt(normalized, "exercise_minutes"),
		WaterIntake:     optionalInt(normalized, "water_intake"),
		OnPeriod:        Truthy(normalized["on_period"]),
		PeriodDay:       optionalInt(normalized, "period_day"),
		CyclePhase:      stringField(normalized, "cycle_phase"),
		Symptoms:        ParseSymptoms(normalized["symptoms"]),
		Breakfast:       stringField(normalized, "breakfast"),
		Lunch:           stringField(normalized, "lunch"),
		Dinner:          stringField(normalized, "dinner"),
		Snacks:          stringField(normalized, "snacks"),
		Notes:           stringField(normalized, "notes"),
		AdditionalNotes: stringField(normalized, "additional_notes"),
	}

	if raw, ok := normalized["date"].(string); ok {
		if parsed, err := ParseDate(strings.TrimSpace(raw)); err == nil {
			entry.Date = parsed
		}
	}

	entry.RecomputeAverageStress()
	return entry
}
