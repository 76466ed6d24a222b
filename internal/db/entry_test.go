package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/wellnesslog/internal/wellness"
)

func TestDailyEntryRoundTrip(t *testing.T) {
	entry := wellness.Entry{
		Date:            time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		UserID:          "alice",
		StressMorning:   wellness.Ptr(4.0),
		SleepHours:      wellness.Ptr(7.5),
		ExerciseMinutes: wellness.Ptr(30),
		OnPeriod:        true,
		Symptoms:        map[string]bool{"cramping": true, "nausea": false},
		Notes:           "good day",
		WellnessScore:   wellness.Ptr(81.2),
		SentimentScore:  0.4,
	}

	var row DailyEntry
	row.ApplyEntry(entry)
	if row.Date != "2024-03-09" {
		t.Fatalf("unexpected date column %q", row.Date)
	}

	got := row.ToEntry()
	if !got.Date.Equal(entry.Date) || got.UserID != "alice" {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if *got.SleepHours != 7.5 || *got.ExerciseMinutes != 30 || got.StressAfternoon != nil {
		t.Fatalf("numeric fields mismatch: %+v", got)
	}
	if !got.Symptoms["cramping"] || got.Symptoms["nausea"] {
		t.Fatalf("symptoms mismatch: %v", got.Symptoms)
	}
	if *got.WellnessScore != 81.2 || got.SentimentScore != 0.4 {
		t.Fatalf("derived fields mismatch: %+v", got)
	}
}

func TestOpenSQLiteEnforcesUserDateUniqueness(t *testing.T) {
	gdb, err := Open(Options{Path: filepath.Join(t.TempDir(), "nested", "wellness.db"), Silent: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, _ := gdb.DB()
	defer sqlDB.Close()

	first := DailyEntry{UserID: "alice", Date: "2024-03-09"}
	if err := gdb.Create(&first).Error; err != nil {
		t.Fatalf("create first: %v", err)
	}
	other := DailyEntry{UserID: "bob", Date: "2024-03-09"}
	if err := gdb.Create(&other).Error; err != nil {
		t.Fatalf("create other user: %v", err)
	}
	dup := DailyEntry{UserID: "alice", Date: "2024-03-09"}
	err = gdb.Create(&dup).Error
	if err == nil {
		t.Fatal("expected unique violation for duplicate user/date")
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) || !IsUniqueConflict(err) {
		t.Fatalf("expected translated duplicate key error, got %v", err)
	}
}

func TestIsUniqueConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"translated", gorm.ErrDuplicatedKey, true},
		{"wrapped", fmt.Errorf("save entry: %w", gorm.ErrDuplicatedKey), true},
		{"raw sqlite", errors.New("UNIQUE constraint failed: daily_entries.user_id, daily_entries.date"), true},
		{"raw postgres", errors.New(`ERROR: duplicate key value violates unique constraint "idx_entry_user_date"`), true},
		{"not found", gorm.ErrRecordNotFound, false},
		{"deadline", context.DeadlineExceeded, false},
		{"disk", errors.New("disk I/O error"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueConflict(tc.err); got != tc.want {
				t.Fatalf("IsUniqueConflict(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestUserProfileClonePreferences(t *testing.T) {
	var p UserProfile
	if prefs := p.ClonePreferences(); prefs == nil || len(prefs) != 0 {
		t.Fatalf("expected empty map, got %v", prefs)
	}

	p.Preferences = map[string]any{"units": "metric"}
	prefs := p.ClonePreferences()
	prefs["units"] = "imperial"
	if p.Preferences["units"] != "metric" {
		t.Fatal("clone must not alias stored preferences")
	}
}
