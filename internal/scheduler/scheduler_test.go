package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/tweetsched/internal/domain"
	"github.com/shaiso/tweetsched/internal/session"
)

func TestValidateCronExpr(t *testing.T) {
	valid := []string{"0 15 * * *", "*/5 * * * *", "30 3 * * 1-5", "@daily"}
	for _, expr := range valid {
		if err := ValidateCronExpr(expr); err != nil {
			t.Errorf("ValidateCronExpr(%q): unexpected error %v", expr, err)
		}
	}

	invalid := []string{"", "0 15 * *", "0 0 15 * * *", "61 * * * *", "every day"}
	for _, expr := range invalid {
		if err := ValidateCronExpr(expr); err == nil {
			t.Errorf("ValidateCronExpr(%q): expected error", expr)
		}
	}
}

func TestNextFires_UTC(t *testing.T) {
	cohort := &domain.Cohort{Name: "nightly", CronExpr: "0 15 * * *", WindowSeconds: 14400}
	from := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	fires, err := NextFires(cohort, from, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC),
	}
	if len(fires) != len(want) {
		t.Fatalf("expected %d fires, got %d", len(want), len(fires))
	}
	for i := range want {
		if !fires[i].Equal(want[i]) {
			t.Errorf("fire %d: expected %v, got %v", i, want[i], fires[i])
		}
	}
}

func TestNextFires_Timezone(t *testing.T) {
	// UTC+3 без перехода на летнее время
	cohort := &domain.Cohort{Name: "msk", CronExpr: "0 15 * * *", Timezone: "Europe/Moscow", WindowSeconds: 60}
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	fires, err := NextFires(cohort, from, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if len(fires) != 1 || !fires[0].Equal(want) {
		t.Errorf("expected %v, got %v", want, fires)
	}
}

func TestNextFires_InvalidCohort(t *testing.T) {
	if _, err := NextFires(&domain.Cohort{CronExpr: "bad"}, time.Now(), 1); err == nil {
		t.Error("expected error for invalid cron")
	}
	if _, err := NextFires(&domain.Cohort{CronExpr: "0 15 * * *", Timezone: "Mars/Olympus"}, time.Now(), 1); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

// --- Scheduler ---

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *fakeRunner) Run(_ context.Context, cohort domain.Cohort) (*session.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cohort.Name)
	if r.err != nil {
		return nil, r.err
	}
	return &session.Report{Cohort: cohort.Name}, nil
}

func TestNew_RegistersEnabledCohorts(t *testing.T) {
	disabled := false
	s, err := New(Config{
		Runner: &fakeRunner{},
		Cohorts: []domain.Cohort{
			{Name: "nightly", CronExpr: "0 15 * * *", WindowSeconds: 14400},
			{Name: "morning", CronExpr: "0 6 * * *", WindowSeconds: 3600, TabIndex: 1},
			{Name: "off", CronExpr: "0 6 * * *", WindowSeconds: 3600, Enabled: &disabled},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Cohorts() != 2 {
		t.Errorf("expected 2 registered cohorts, got %d", s.Cohorts())
	}
	if _, ok := s.NextRun("off"); ok {
		t.Error("disabled cohort should not be registered")
	}
}

func TestNew_RejectsBadCohorts(t *testing.T) {
	tests := []struct {
		name    string
		cohorts []domain.Cohort
	}{
		{"invalid cron", []domain.Cohort{{Name: "a", CronExpr: "nope", WindowSeconds: 1}}},
		{"invalid timezone", []domain.Cohort{{Name: "a", CronExpr: "0 1 * * *", Timezone: "Nowhere/City", WindowSeconds: 1}}},
		{"duplicate", []domain.Cohort{
			{Name: "a", CronExpr: "0 1 * * *", WindowSeconds: 1},
			{Name: "a", CronExpr: "0 2 * * *", WindowSeconds: 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(Config{Runner: &fakeRunner{}, Cohorts: tt.cohorts}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStart_NextRunKnown(t *testing.T) {
	s, err := New(Config{
		Runner:  &fakeRunner{},
		Cohorts: []domain.Cohort{{Name: "nightly", CronExpr: "0 15 * * *", WindowSeconds: 14400}},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	s.Start(context.Background())
	defer s.Stop()

	next, ok := s.NextRun("nightly")
	if !ok {
		t.Fatal("nightly should be registered")
	}
	if next.IsZero() || next.UTC().Hour() != 15 || next.Minute() != 0 {
		t.Errorf("expected next run at 15:00 UTC, got %v", next)
	}
}

func TestRunCohort_ErrorsDoNotPanic(t *testing.T) {
	for _, runErr := range []error{
		nil,
		fmt.Errorf("run: %w", session.ErrNoCandidates),
		errors.New("sheet unavailable"),
	} {
		runner := &fakeRunner{err: runErr}
		s, err := New(Config{Runner: runner})
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		s.RunCohort(context.Background(), domain.Cohort{Name: "nightly", WindowSeconds: 10})

		if len(runner.calls) != 1 || runner.calls[0] != "nightly" {
			t.Errorf("expected one run of nightly, got %v", runner.calls)
		}
	}
}
