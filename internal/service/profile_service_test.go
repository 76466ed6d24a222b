package service

import (
	"context"
	"errors"
	"testing"

	"github.com/wellnesslog/internal/db"
)

func TestProfileServiceGetCreatesDefault(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewProfileService(db.DB)
	profile, err := svc.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.AverageCycleLength != 28 || profile.LastPeriodStart != "" {
		t.Fatalf("unexpected default profile: %+v", profile)
	}
	if len(profile.ClonePreferences()) != 0 {
		t.Fatalf("expected empty preferences, got %v", profile.Preferences)
	}

	again, err := svc.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if again.ID != profile.ID {
		t.Fatalf("expected the same profile row, got %d and %d", profile.ID, again.ID)
	}
}

func TestProfileServiceUpdateMergesPreferences(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewProfileService(db.DB)
	ctx := context.Background()
	length := 30
	start := "2024-02-20"
	if _, err := svc.Update(ctx, "alice", ProfileInput{
		AverageCycleLength: &length,
		LastPeriodStart:    &start,
		Preferences:        map[string]any{"units": "metric", "reminders": true},
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	updated, err := svc.Update(ctx, "alice", ProfileInput{Preferences: map[string]any{"units": "imperial"}})
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if updated.AverageCycleLength != 30 || updated.LastPeriodStart != "2024-02-20" {
		t.Fatalf("unset fields should be kept: %+v", updated)
	}

	stored, err := svc.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	prefs := stored.ClonePreferences()
	if prefs["units"] != "imperial" || prefs["reminders"] != true {
		t.Fatalf("unexpected preferences: %v", prefs)
	}
}

func TestProfileServiceUpdateValidation(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewProfileService(db.DB)
	ctx := context.Background()

	zero := 0
	if _, err := svc.Update(ctx, "alice", ProfileInput{AverageCycleLength: &zero}); !errors.Is(err, ErrProfileInvalidInput) {
		t.Fatalf("expected ErrProfileInvalidInput for cycle length, got %v", err)
	}
	bad := "20/02/2024"
	if _, err := svc.Update(ctx, "alice", ProfileInput{LastPeriodStart: &bad}); !errors.Is(err, ErrProfileInvalidInput) {
		t.Fatalf("expected ErrProfileInvalidInput for date, got %v", err)
	}

	empty := " "
	profile, err := svc.Update(ctx, "alice", ProfileInput{LastPeriodStart: &empty})
	if err != nil {
		t.Fatalf("clearing last period start failed: %v", err)
	}
	if profile.LastPeriodStart != "" {
		t.Fatalf("expected cleared start, got %q", profile.LastPeriodStart)
	}
}
