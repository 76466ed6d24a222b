package main

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wellnesslog/internal/cycle"
	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/ml/gbm"
	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/service"
)

func setupSeedTestDB(t *testing.T) func() {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file:wellness-seed?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestGenerateEntriesShape(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := generateEntries("seed", start, 90, rand.New(rand.NewPCG(1, 2)))
	if len(entries) != 90 {
		t.Fatalf("expected 90 entries, got %d", len(entries))
	}

	periodDays := 0
	for i, e := range entries {
		if !e.Date.Equal(start.AddDate(0, 0, i)) {
			t.Fatalf("entry %d has date %s", i, e.DateString())
		}
		for _, s := range []*float64{e.StressMorning, e.StressAfternoon, e.StressNight} {
			if s == nil || *s < 1 || *s > 10 {
				t.Fatalf("stress out of range on %s: %v", e.DateString(), s)
			}
		}
		if *e.SleepHours < 4 || *e.SleepHours > 10 {
			t.Fatalf("sleep out of range on %s: %v", e.DateString(), *e.SleepHours)
		}
		if e.OnPeriod {
			periodDays++
			if e.Symptoms == nil || e.PeriodDay == nil {
				t.Fatalf("period day %s missing symptoms or period_day", e.DateString())
			}
		}
	}
	// 0-4, 28-32, 56-60, 84-88
	if periodDays != 20 {
		t.Fatalf("expected 20 period days, got %d", periodDays)
	}

	prediction, ok := cycle.PredictNextPeriod(entries, start.AddDate(0, 0, 90))
	if !ok || prediction.AvgCycleLength != 28 {
		t.Fatalf("expected regular 28 day cycles, got %+v (ok=%v)", prediction, ok)
	}
}

func TestGenerateEntriesDeterministic(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := generateEntries("seed", start, 10, rand.New(rand.NewPCG(7, 7)))
	b := generateEntries("seed", start, 10, rand.New(rand.NewPCG(7, 7)))
	for i := range a {
		if *a[i].SleepHours != *b[i].SleepHours || a[i].Notes != b[i].Notes {
			t.Fatalf("entry %d differs between runs with the same seed", i)
		}
	}
}

func TestSeedEntriesScoresAndTrains(t *testing.T) {
	cleanup := setupSeedTestDB(t)
	defer cleanup()

	opts := predictor.DefaultOptions()
	opts.GBM = gbm.Config{Estimators: 20, MaxDepth: 3, LearningRate: 0.1}
	opts.RNN.Epochs = 3
	models := predictor.New(nil, opts, zerolog.Nop())
	svc := service.NewEntryService(db.DB, models, zerolog.Nop())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := generateEntries("seed", start, 14, rand.New(rand.NewPCG(3, 4)))
	created, err := seedEntries(context.Background(), svc, entries, zerolog.Nop())
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if created != 14 {
		t.Fatalf("expected 14 created entries, got %d", created)
	}

	// 再次写入只会合并，不会新增
	created, err = seedEntries(context.Background(), svc, entries[:3], zerolog.Nop())
	if err != nil || created != 0 {
		t.Fatalf("expected re-seed to merge, got %d (%v)", created, err)
	}

	stored, err := svc.List(context.Background(), "seed")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, e := range stored {
		if e.WellnessScore == nil || e.AverageStress == nil {
			t.Fatalf("entry %s was not scored", e.DateString())
		}
	}
	status := models.Status()
	if !status.ScoreModelTrained || !status.SequenceModelTrained {
		t.Fatalf("expected both models trained after 14 entries, got %+v", status)
	}
}
