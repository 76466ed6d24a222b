package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/wellnesslog/internal/config"
	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/logging"
	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/service"
	"github.com/wellnesslog/internal/wellness"
)

const seedCycleLength = 28

var (
	seedBreakfasts = []string{"oatmeal with berries", "eggs and toast", "greek yogurt", "smoothie", ""}
	seedLunches    = []string{"chicken salad", "lentil soup", "rice bowl", "sandwich", "leftovers"}
	seedDinners    = []string{"salmon and vegetables", "pasta", "stir fry", "tacos", "curry"}
	seedNotes      = []string{
		"Feeling great and energetic today",
		"A bit tired after a long day",
		"Good workout, feeling strong",
		"Stressed about work deadlines",
		"Relaxed evening, slept well",
		"Cramps were painful this morning",
		"",
	}
	seedPeriodSymptoms = []string{"cramping", "bloating", "headache", "fatigue", "mood_swings", "back_pain"}
)

// 测试数据生成器
func main() {
	var (
		userID string
		days   int
		seed   uint64
	)
	cfg := config.Load()
	flag.StringVar(&userID, "user", cfg.DefaultUserID, "user id to seed")
	flag.IntVar(&days, "days", 90, "number of days to generate, ending today")
	flag.Uint64Var(&seed, "seed", 42, "random seed")
	flag.Parse()

	// 初始化数据库
	if err := db.Init(db.Options{Path: cfg.DatabasePath, URL: cfg.DatabaseURL}); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "seed")

	store, err := predictor.NewFileStore(cfg.ModelDir, logger)
	if err != nil {
		log.Fatal("模型目录初始化失败:", err)
	}
	models := predictor.New(store, predictor.DefaultOptions(), logger)
	svc := service.NewEntryService(db.DB, models, logger)

	fmt.Println("开始生成测试数据...")
	start := wellness.NormalizeDate(time.Now()).AddDate(0, 0, -(days - 1))
	entries := generateEntries(userID, start, days, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	created, err := seedEntries(context.Background(), svc, entries, logger)
	if err != nil {
		log.Fatal("写入测试数据失败:", err)
	}

	status := models.Status()
	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s\n", userID)
	fmt.Printf("记录: %d 天 (新建 %d)\n", len(entries), created)
	fmt.Printf("模型: score=%v sequence=%v\n", status.ScoreModelTrained, status.SequenceModelTrained)
}

// generateEntries 生成 days 天的模拟记录：28 天周期、前 5 天为经期，
// 睡眠与压力带有周内波动，经期压力略高。
func generateEntries(userID string, start time.Time, days int, rng *rand.Rand) []wellness.Entry {
	entries := make([]wellness.Entry, 0, days)
	for i := 0; i < days; i++ {
		cycleDay := i % seedCycleLength
		onPeriod := cycleDay < 5
		weekend := start.AddDate(0, 0, i).Weekday() == time.Saturday || start.AddDate(0, 0, i).Weekday() == time.Sunday

		stressBase := 4 + 1.5*math.Sin(float64(i)/5)
		if onPeriod {
			stressBase += 1.5
		}
		if weekend {
			stressBase -= 1
		}
		stress := func() *float64 {
			return wellness.Ptr(wellness.Clamp(math.Round(stressBase+rng.NormFloat64()), 1, 10))
		}

		sleep := 7 + rng.NormFloat64()*0.9
		if weekend {
			sleep += 0.7
		}
		exercise := rng.IntN(60)
		if onPeriod {
			exercise /= 2
		}

		e := wellness.Entry{
			UserID:          userID,
			Date:            start.AddDate(0, 0, i),
			StressMorning:   stress(),
			StressAfternoon: stress(),
			StressNight:     stress(),
			SleepHours:      wellness.Ptr(wellness.Round1(wellness.Clamp(sleep, 4, 10))),
			SleepQuality:    wellness.Ptr(float64(4 + rng.IntN(6))),
			ExerciseMinutes: wellness.Ptr(exercise),
			WaterIntake:     wellness.Ptr(1200 + 100*rng.IntN(15)),
			OnPeriod:        onPeriod,
			Breakfast:       seedBreakfasts[rng.IntN(len(seedBreakfasts))],
			Lunch:           seedLunches[rng.IntN(len(seedLunches))],
			Dinner:          seedDinners[rng.IntN(len(seedDinners))],
			Notes:           seedNotes[rng.IntN(len(seedNotes))],
		}
		if onPeriod {
			e.PeriodDay = wellness.Ptr(cycleDay + 1)
			e.Symptoms = map[string]bool{}
			for _, name := range seedPeriodSymptoms {
				e.Symptoms[name] = rng.Float64() < 0.5
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// seedEntries 通过 EntryService 写入记录，保证评分与训练流程与线上一致。
func seedEntries(ctx context.Context, svc *service.EntryService, entries []wellness.Entry, log zerolog.Logger) (int, error) {
	created := 0
	for _, e := range entries {
		result, err := svc.Save(ctx, e)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", e.DateString(), err)
		}
		if result.Created {
			created++
		}
		if result.Trained.ScoreTrained || result.Trained.SequenceTrained {
			log.Info().Str("date", e.DateString()).Interface("trained", result.Trained).Msg("models trained")
		}
	}
	return created, nil
}
