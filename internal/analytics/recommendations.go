package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wellnesslog/internal/cycle"
	"github.com/wellnesslog/internal/wellness"
)

const (
	RecommendationWindow = 7
	maxPriorities        = 3
)

// Priority 是一条优先改进建议。
type Priority struct {
	Area        string   `json:"area"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// Nutrition 是某个周期阶段的饮食建议。
type Nutrition struct {
	Focus string   `json:"focus"`
	Foods []string `json:"foods"`
	Avoid string   `json:"avoid"`
}

// SymptomAdvice 是针对最近一次经期症状的建议。
type SymptomAdvice struct {
	Symptom string `json:"symptom"`
	Name    string `json:"name"`
	Advice  string `json:"advice"`
}

// Activities 分为身心两类。
type Activities struct {
	Mind []string `json:"mind"`
	Body []string `json:"body"`
}

// Recommendations 是个性化建议的完整结果。
type Recommendations struct {
	AvgWellness   float64         `json:"avg_wellness"`
	AvgStress     float64         `json:"avg_stress"`
	AvgSleep      float64         `json:"avg_sleep"`
	AvgExercise   float64         `json:"avg_exercise"`
	AvgWater      float64         `json:"avg_water"`
	CurrentPhase  cycle.Phase     `json:"current_phase"`
	Priorities    []Priority      `json:"priorities"`
	Nutrition     Nutrition       `json:"nutrition"`
	SymptomAdvice []SymptomAdvice `json:"symptom_advice"`
	Activities    Activities      `json:"activities"`
	Encouragement string          `json:"encouragement"`
}

// Recommend 基于最近 7 条记录与当前周期阶段生成建议。没有记录时返回 false。
func Recommend(entries []wellness.Entry, now time.Time) (Recommendations, bool) {
	if len(entries) == 0 {
		return Recommendations{}, false
	}
	recent := tail(entries, RecommendationWindow)
	phase := cycle.CurrentPhase(entries, now)

	r := Recommendations{
		AvgWellness:  meanOf(recent, wellnessMetric),
		AvgStress:    meanOf(recent, stressMetric),
		AvgSleep:     meanOf(recent, sleepMetric),
		AvgExercise:  meanOf(recent, exerciseMetric),
		AvgWater:     meanOf(recent, waterMetric),
		CurrentPhase: phase,
	}
	r.Priorities = priorities(r)
	r.Nutrition = NutritionFor(phase)
	r.SymptomAdvice = symptomAdvice(entries)
	r.Activities = activitiesFor(phase, r.AvgStress)
	r.Encouragement = encouragement(r.AvgWellness)
	return r, true
}

func priorities(r Recommendations) []Priority {
	out := []Priority{}
	if r.AvgSleep < 7 {
		out = append(out, Priority{
			Area:        "sleep",
			Title:       "Improve Sleep Duration",
			Description: fmt.Sprintf("You're averaging %.1f hours of sleep. Aim for 7-9 hours.", r.AvgSleep),
			Actions: []string{
				"Set a consistent bedtime routine",
				"Avoid screens 1 hour before bed",
				"Keep your bedroom cool (60-67°F)",
				"Try relaxation techniques like deep breathing",
			},
		})
	}
	if r.AvgStress > 6 {
		out = append(out, Priority{
			Area:        "stress",
			Title:       "Reduce Stress Levels",
			Description: fmt.Sprintf("Your stress levels are high (%.1f/10). Let's work on managing this.", r.AvgStress),
			Actions: []string{
				"Practice 10 minutes of meditation daily",
				"Try progressive muscle relaxation",
				"Journal your thoughts and feelings",
				"Take short breaks every hour during work",
				"Consider yoga or tai chi",
			},
		})
	}
	if r.AvgExercise < 30 {
		out = append(out, Priority{
			Area:        "exercise",
			Title:       "Increase Physical Activity",
			Description: fmt.Sprintf("You're averaging %.0f minutes of exercise. Aim for at least 30 minutes daily.", r.AvgExercise),
			Actions: []string{
				"Start with a 15-minute walk daily",
				"Try bodyweight exercises at home",
				"Use stairs instead of elevators",
				"Dance to your favorite music for 20 minutes",
				"Join a fitness class or online workout",
			},
		})
	}
	if r.AvgWater < waterGoal {
		out = append(out, Priority{
			Area:        "hydration",
			Title:       "Improve Hydration",
			Description: fmt.Sprintf("You're drinking %.0fml daily. Target is 2000ml (8 glasses).", r.AvgWater),
			Actions: []string{
				"Keep a water bottle with you at all times",
				"Set hourly reminders to drink water",
				"Drink a glass of water before each meal",
				"Infuse water with fruits for flavor",
				"Track your intake using an app",
			},
		})
	}
	if len(out) > maxPriorities {
		out = out[:maxPriorities]
	}
	return out
}

var nutritionByPhase = map[cycle.Phase]Nutrition{
	cycle.PhaseMenstrual: {
		Focus: "Iron-rich foods and anti-inflammatory nutrients",
		Foods: []string{
			"Leafy greens (spinach, kale) for iron",
			"Dark chocolate for magnesium and mood",
			"Fatty fish (salmon) for omega-3s",
			"Berries for antioxidants",
			"Nuts and seeds for healthy fats",
			"Ginger tea for nausea and cramping",
		},
		Avoid: "Excessive caffeine, salty foods, processed sugars",
	},
	cycle.PhaseFollicular: {
		Focus: "Fresh, light foods to support rising energy",
		Foods: []string{
			"Fresh salads and vegetables",
			"Lean proteins (chicken, turkey)",
			"Avocados for healthy fats",
			"Fermented foods for gut health",
			"Pumpkin seeds for zinc",
			"Citrus fruits for vitamin C",
		},
		Avoid: "Heavy, greasy foods",
	},
	cycle.PhaseOvulation: {
		Focus: "Fiber and antioxidant-rich foods",
		Foods: []string{
			"Cruciferous vegetables (broccoli, cauliflower)",
			"Colorful vegetables",
			"Whole grains (quinoa, brown rice)",
			"Berries for antioxidants",
			"Eggs for protein",
			"Watermelon for hydration",
		},
		Avoid: "Excessive caffeine",
	},
	cycle.PhaseLuteal: {
		Focus: "Complex carbs and magnesium-rich foods",
		Foods: []string{
			"Sweet potatoes for complex carbs",
			"Bananas for B6 and potassium",
			"Dark leafy greens for magnesium",
			"Almonds and cashews",
			"Fatty fish for omega-3s",
			"Chickpeas and lentils",
		},
		Avoid: "Refined sugars, excessive salt, alcohol",
	},
	cycle.PhaseUnknown: {
		Focus: "Balanced, whole-food nutrition",
		Foods: []string{
			"Variety of colorful vegetables",
			"Lean proteins",
			"Whole grains",
			"Fresh fruits",
			"Healthy fats from nuts and seeds",
			"Plenty of water",
		},
		Avoid: "Processed foods, excessive sugar",
	},
}

// NutritionFor 返回阶段对应的饮食建议，未知阶段使用通用建议。
func NutritionFor(phase cycle.Phase) Nutrition {
	if n, ok := nutritionByPhase[phase]; ok {
		return n
	}
	return nutritionByPhase[cycle.PhaseUnknown]
}

var adviceBySymptom = map[string]string{
	"headache":          "Stay hydrated, apply cold compress, try peppermint oil, reduce screen time, get adequate sleep",
	"heavy_flow":        "Increase iron intake, stay hydrated, use proper protection, consult doctor if severe",
	"light_flow":        "Normal variation, ensure adequate nutrition, track for patterns",
	"cramping":          "Use heating pad, gentle exercise, magnesium supplements, herbal teas (chamomile, ginger)",
	"bloating":          "Reduce salt intake, avoid carbonated drinks, try fennel tea, gentle yoga poses",
	"mood_swings":       "Regular exercise, omega-3 fatty acids, mindfulness practice, adequate sleep",
	"fatigue":           "Iron-rich foods, B-vitamins, gentle movement, power naps (20min), stay hydrated",
	"nausea":            "Ginger tea, small frequent meals, avoid greasy foods, fresh air, peppermint",
	"back_pain":         "Heat therapy, gentle stretching, proper posture, massage, anti-inflammatory foods",
	"breast_tenderness": "Supportive bra, reduce caffeine, evening primrose oil, cold compress",
}

// symptomAdvice 取最近一条经期记录中出现的已知症状。
func symptomAdvice(entries []wellness.Entry) []SymptomAdvice {
	out := []SymptomAdvice{}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.OnPeriod {
			continue
		}
		for symptom, present := range e.Symptoms {
			advice, known := adviceBySymptom[symptom]
			if present && known {
				out = append(out, SymptomAdvice{Symptom: symptom, Name: symptomName(symptom), Advice: advice})
			}
		}
		break
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symptom < out[j].Symptom })
	return out
}

// symptomName 把 back_pain 转成 Back Pain。
func symptomName(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func activitiesFor(phase cycle.Phase, stress float64) Activities {
	var a Activities
	if stress > 6 {
		a.Mind = []string{
			"10-minute guided meditation",
			"Journaling your thoughts",
			"Deep breathing exercises (4-7-8 technique)",
			"Progressive muscle relaxation",
			"Listen to calming music or nature sounds",
		}
	} else {
		a.Mind = []string{
			"Gratitude journaling",
			"Reading for pleasure",
			"Creative activities (drawing, coloring)",
			"Mindful tea ceremony",
			"Connect with loved ones",
		}
	}

	switch phase {
	case cycle.PhaseMenstrual:
		a.Body = []string{
			"Gentle yoga or yin yoga",
			"Light walking in nature",
			"Stretching exercises",
			"Swimming (if comfortable)",
			"Restorative poses",
		}
	case cycle.PhaseFollicular, cycle.PhaseOvulation:
		a.Body = []string{
			"High-intensity interval training (HIIT)",
			"Running or jogging",
			"Dance classes",
			"Strength training",
			"Team sports",
		}
	case cycle.PhaseLuteal:
		a.Body = []string{
			"Moderate cardio (cycling, swimming)",
			"Pilates",
			"Strength training with lighter weights",
			"Yoga flow",
			"Hiking",
		}
	default:
		a.Body = []string{
			"30-minute brisk walk",
			"Yoga",
			"Bodyweight exercises",
			"Swimming",
			"Dancing",
		}
	}
	return a
}

func encouragement(avgWellness float64) string {
	switch {
	case avgWellness >= 70:
		return "Great job! You're maintaining excellent wellness habits. Keep up the amazing work!"
	case avgWellness >= 55:
		return "You're making progress! A few adjustments will help you reach optimal wellness."
	default:
		return "Remember to be kind to yourself. Small, consistent changes make a big difference."
	}
}
