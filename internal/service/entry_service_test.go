package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/wellness"
)

func setupServiceTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// stubScorer 直接使用启发式评分，并记录训练调用。
type stubScorer struct {
	trainCalls  int
	lastHistory int
}

func (s *stubScorer) Predict(e wellness.Entry) predictor.Insights {
	e.SentimentScore = wellness.Polarity(e.NoteText())
	score := wellness.HeuristicScore(e)
	return predictor.Insights{
		WellnessScore:   score,
		SentimentScore:  e.SentimentScore,
		PredictedEnergy: wellness.PredictEnergy(score, e),
		HealthStatus:    wellness.HealthStatus(score),
		ScoreSource:     predictor.SourceHeuristic,
	}
}

func (s *stubScorer) MaybeTrain(_ context.Context, history []wellness.Entry) predictor.TrainOutcome {
	s.trainCalls++
	s.lastHistory = len(history)
	return predictor.TrainOutcome{ScoreTrained: len(history) >= 10}
}

func (s *stubScorer) Status() predictor.Status {
	return predictor.Status{}
}

func newTestEntryService() (*EntryService, *stubScorer) {
	scorer := &stubScorer{}
	return NewEntryService(db.DB, scorer, zerolog.Nop()), scorer
}

func day(value string) time.Time {
	d, err := wellness.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEntryServiceSaveCreatesAndScores(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc, scorer := newTestEntryService()
	result, err := svc.Save(context.Background(), wellness.Entry{
		UserID:          "alice",
		Date:            day("2024-03-01"),
		StressMorning:   wellness.Ptr(3.0),
		StressAfternoon: wellness.Ptr(5.0),
		StressNight:     wellness.Ptr(4.0),
		SleepHours:      wellness.Ptr(8.0),
		Notes:           "feeling great",
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !result.Created {
		t.Fatal("expected first save to create")
	}
	if result.Entry.AverageStress == nil || *result.Entry.AverageStress != 4 {
		t.Fatalf("expected average stress 4, got %v", result.Entry.AverageStress)
	}
	if result.Entry.WellnessScore == nil || result.Entry.PredictedEnergy == nil {
		t.Fatalf("expected derived scores, got %+v", result.Entry)
	}
	if result.Entry.SentimentScore <= 0 {
		t.Fatalf("expected positive sentiment, got %v", result.Entry.SentimentScore)
	}
	if scorer.trainCalls != 1 || scorer.lastHistory != 1 {
		t.Fatalf("expected one training check over 1 entry, got %d/%d", scorer.trainCalls, scorer.lastHistory)
	}
}

func TestEntryServiceResubmissionMerges(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc, _ := newTestEntryService()
	ctx := context.Background()
	if _, err := svc.Save(ctx, wellness.Entry{
		UserID:     "alice",
		Date:       day("2024-03-01"),
		SleepHours: wellness.Ptr(8.0),
		Breakfast:  "oats",
		Symptoms:   map[string]bool{"cramping": true},
	}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	result, err := svc.Save(ctx, wellness.Entry{
		UserID:          "alice",
		Date:            day("2024-03-01"),
		ExerciseMinutes: wellness.Ptr(45),
	})
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if result.Created {
		t.Fatal("expected resubmission to update")
	}

	stored, err := svc.GetByDate(ctx, "alice", "2024-03-01")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.SleepHours == nil || *stored.SleepHours != 8 {
		t.Fatalf("sleep hours lost on merge: %v", stored.SleepHours)
	}
	if stored.Breakfast != "oats" || !stored.Symptoms["cramping"] {
		t.Fatalf("stored fields lost on merge: %+v", stored)
	}
	if stored.ExerciseMinutes == nil || *stored.ExerciseMinutes != 45 {
		t.Fatalf("exercise not applied: %v", stored.ExerciseMinutes)
	}
	if want := wellness.HeuristicScore(stored); *stored.WellnessScore != want {
		t.Fatalf("score not recomputed on merged entry: got %v want %v", *stored.WellnessScore, want)
	}

	count, err := svc.Count(ctx, "alice")
	if err != nil || count != 1 {
		t.Fatalf("expected exactly one row, got %d (%v)", count, err)
	}
}

func TestEntryServiceResubmissionRecomputesAverageStress(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc, _ := newTestEntryService()
	ctx := context.Background()
	first, err := svc.Save(ctx, wellness.Entry{
		UserID:          "alice",
		Date:            day("2024-03-02"),
		StressMorning:   wellness.Ptr(2.0),
		StressAfternoon: wellness.Ptr(4.0),
		StressNight:     wellness.Ptr(6.0),
	})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if first.Entry.AverageStress == nil || *first.Entry.AverageStress != 4 {
		t.Fatalf("expected average stress 4, got %v", first.Entry.AverageStress)
	}

	// 只改晚间压力，平均值按合并后的三项重算
	second, err := svc.Save(ctx, wellness.Entry{
		UserID:      "alice",
		Date:        day("2024-03-02"),
		StressNight: wellness.Ptr(9.0),
	})
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if second.Created {
		t.Fatal("expected resubmission to update")
	}

	stored, err := svc.GetByDate(ctx, "alice", "2024-03-02")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.StressMorning == nil || *stored.StressMorning != 2 || stored.StressAfternoon == nil || *stored.StressAfternoon != 4 {
		t.Fatalf("untouched stress components lost: %v/%v", stored.StressMorning, stored.StressAfternoon)
	}
	if stored.StressNight == nil || *stored.StressNight != 9 {
		t.Fatalf("night stress not applied: %v", stored.StressNight)
	}
	if stored.AverageStress == nil || *stored.AverageStress != 5 {
		t.Fatalf("expected recomputed average stress 5, got %v", stored.AverageStress)
	}
	if want := wellness.HeuristicScore(stored); *stored.WellnessScore != want {
		t.Fatalf("score not recomputed after stress change: got %v want %v", *stored.WellnessScore, want)
	}
}

// failCreates 在 gorm 的 create 回调前注入错误，返回实际的写入尝试次数。
func failCreates(t *testing.T, name string, fail func(attempt int) error) *int {
	t.Helper()
	attempts := 0
	err := db.DB.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != "daily_entries" {
			return
		}
		attempts++
		if err := fail(attempts); err != nil {
			tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	return &attempts
}

func TestEntryServiceSaveRetriesUniqueConflictOnce(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	attempts := failCreates(t, "test:conflict_once", func(attempt int) error {
		if attempt == 1 {
			return gorm.ErrDuplicatedKey
		}
		return nil
	})

	svc, _ := newTestEntryService()
	result, err := svc.Save(context.Background(), wellness.Entry{
		UserID:     "alice",
		Date:       day("2024-03-03"),
		SleepHours: wellness.Ptr(7.0),
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if *attempts != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", *attempts)
	}
	if result.Entry.SleepHours == nil || *result.Entry.SleepHours != 7 {
		t.Fatalf("unexpected saved entry: %+v", result.Entry)
	}
}

func TestEntryServiceSaveDoesNotRetryOtherErrors(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	diskErr := errors.New("disk I/O error")
	attempts := failCreates(t, "test:disk_error", func(int) error { return diskErr })

	svc, _ := newTestEntryService()
	_, err := svc.Save(context.Background(), wellness.Entry{
		UserID: "alice",
		Date:   day("2024-03-04"),
	})
	if !errors.Is(err, diskErr) {
		t.Fatalf("expected disk error, got %v", err)
	}
	if *attempts != 1 {
		t.Fatalf("expected no retry for non-conflict errors, got %d attempts", *attempts)
	}
}

func TestEntryServiceSaveRequiresUser(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc, _ := newTestEntryService()
	if _, err := svc.Save(context.Background(), wellness.Entry{UserID: "  "}); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestEntryServiceListAndRecentOrder(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc, _ := newTestEntryService()
	ctx := context.Background()
	for _, date := range []string{"2024-03-03", "2024-03-01", "2024-03-04", "2024-03-02"} {
		if _, err := svc.Save(ctx, wellness.Entry{UserID: "alice", Date: day(date)}); err != nil {
			t.Fatalf("save %s failed: %v", date, err)
		}
	}
	if _, err := svc.Save(ctx, wellness.Entry{UserID: "bob", Date: day("2024-03-05")}); err != nil {
		t.Fatalf("save other user failed: %v", err)
	}

	all, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 4 || all[0].DateString() != "2024-03-01" || all[3].DateString() != "2024-03-04" {
		t.Fatalf("unexpected list order: %v", dates(all))
	}

	recent, err := svc.Recent(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if got := dates(recent); len(got) != 2 || got[0] != "2024-03-03" || got[1] != "2024-03-04" {
		t.Fatalf("unexpected recent entries: %v", got)
	}
}

func TestEntryServiceGetAndDelete(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc, _ := newTestEntryService()
	ctx := context.Background()

	if _, err := svc.GetByDate(ctx, "alice", "03/01/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := svc.GetByDate(ctx, "alice", "2024-03-01"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "alice", "2024-03-01"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound on delete, got %v", err)
	}

	if _, err := svc.Save(ctx, wellness.Entry{UserID: "alice", Date: day("2024-03-01")}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := svc.Delete(ctx, "alice", "2024-03-01"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// 硬删除后同一天可以重新写入
	if result, err := svc.Save(ctx, wellness.Entry{UserID: "alice", Date: day("2024-03-01")}); err != nil || !result.Created {
		t.Fatalf("expected re-create after delete, got %+v (%v)", result, err)
	}
}

func TestEntryServiceImportSkipsExistingDates(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc, scorer := newTestEntryService()
	ctx := context.Background()
	if _, err := svc.Save(ctx, wellness.Entry{UserID: "alice", Date: day("2024-03-01"), SleepHours: wellness.Ptr(6.0)}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	scorer.trainCalls = 0

	result, err := svc.Import(ctx, "alice", []map[string]any{
		{"date": "2024-03-01", "sleep_hours": 9.0},
		{"date": "2024-03-02", "sleep_hours": "7.5", "morning_stress": 4, "afternoon_stress": 4, "night_stress": 4},
		{"date": "not-a-date"},
		{"sleep_hours": 8},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 3 {
		t.Fatalf("unexpected import result: %+v", result)
	}
	if len(result.Dates) != 1 || result.Dates[0] != "2024-03-02" {
		t.Fatalf("unexpected imported dates: %v", result.Dates)
	}
	if scorer.trainCalls != 1 || scorer.lastHistory != 2 {
		t.Fatalf("expected one training check over 2 entries, got %d/%d", scorer.trainCalls, scorer.lastHistory)
	}

	kept, _ := svc.GetByDate(ctx, "alice", "2024-03-01")
	if *kept.SleepHours != 6 {
		t.Fatalf("existing entry overwritten by import: %v", *kept.SleepHours)
	}
	imported, _ := svc.GetByDate(ctx, "alice", "2024-03-02")
	if imported.SleepHours == nil || *imported.SleepHours != 7.5 || imported.WellnessScore == nil {
		t.Fatalf("imported entry not parsed and scored: %+v", imported)
	}
}

func dates(entries []wellness.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.DateString())
	}
	return out
}
