package models

import (
	"errors"
	"testing"
	"time"
)

func TestSetLogs(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "setter")
	squat, err := GetOrCreateExercise(db, "Back Squat", "legs", "barbell", "")
	if err != nil {
		t.Fatalf("create exercise: %v", err)
	}
	bench, _ := GetOrCreateExercise(db, "Bench Press", "chest", "barbell", "")

	s, _ := StartSession(db, u.ID, nil, "2026-03-15", "", time.Now())

	weight := 100.0
	rpe := 8.5
	first, err := AddSetLog(db, u.ID, s.ID, squat.ID, 5, &weight, &rpe)
	if err != nil {
		t.Fatalf("add set: %v", err)
	}
	if first.SetNumber != 1 || first.ExerciseName != "Back Squat" {
		t.Errorf("first set = %+v", first)
	}
	if first.WeightKg == nil || *first.WeightKg != 100 {
		t.Errorf("weight = %v, want 100", first.WeightKg)
	}

	second, _ := AddSetLog(db, u.ID, s.ID, squat.ID, 5, &weight, nil)
	if second.SetNumber != 2 {
		t.Errorf("second squat set number = %d, want 2", second.SetNumber)
	}
	if second.RPE != nil {
		t.Errorf("rpe = %v, want nil", *second.RPE)
	}

	other, _ := AddSetLog(db, u.ID, s.ID, bench.ID, 8, nil, nil)
	if other.SetNumber != 1 {
		t.Errorf("bench set number = %d, want 1", other.SetNumber)
	}

	got, err := GetSession(db, u.ID, s.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.SetCount != 3 || len(got.Sets) != 3 {
		t.Errorf("set count = %d (%d loaded), want 3", got.SetCount, len(got.Sets))
	}

	if err := DeleteSetLog(db, u.ID, s.ID, second.ID); err != nil {
		t.Fatalf("delete set: %v", err)
	}
	if err := DeleteSetLog(db, u.ID, s.ID, second.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}

	sets, _ := ListSetLogs(db, s.ID)
	if len(sets) != 2 {
		t.Errorf("sets after delete = %d, want 2", len(sets))
	}
}

func TestSetLogs_OwnerScoped(t *testing.T) {
	db := testDB(t)
	owner := testUser(t, db, "owner")
	intruder := testUser(t, db, "intruder")
	row, _ := GetOrCreateExercise(db, "Barbell Row", "back", "barbell", "")

	s, _ := StartSession(db, owner.ID, nil, "2026-03-15", "", time.Now())
	set, err := AddSetLog(db, owner.ID, s.ID, row.ID, 8, nil, nil)
	if err != nil {
		t.Fatalf("add set: %v", err)
	}

	if _, err := AddSetLog(db, intruder.ID, s.ID, row.ID, 8, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("add to foreign session err = %v, want ErrNotFound", err)
	}
	if err := DeleteSetLog(db, intruder.ID, s.ID, set.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete from foreign session err = %v, want ErrNotFound", err)
	}

	sets, _ := ListSetLogs(db, s.ID)
	if len(sets) != 1 {
		t.Errorf("sets = %d, want 1", len(sets))
	}
}
