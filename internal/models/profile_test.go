package models

import (
	"errors"
	"testing"
)

func TestGetProfile_Defaults(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "fresh")

	p, err := GetProfile(db, u.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.FitnessGoal != DefaultFitnessGoal || p.DaysPerWeek != DefaultDaysPerWeek {
		t.Errorf("defaults = %+v", p)
	}
	if p.WeightKg != nil {
		t.Errorf("weight = %v, want nil", *p.WeightKg)
	}
}

func TestUpsertProfile(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "profiled")

	weight := 82.5
	p, err := UpsertProfile(db, &Profile{
		UserID: u.ID, FitnessGoal: "strength", ExperienceLevel: "intermediate",
		DaysPerWeek: 4, SessionMinutes: 60, Equipment: "barbell, rack", WeightKg: &weight,
	})
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	if p.FitnessGoal != "strength" || p.DaysPerWeek != 4 {
		t.Errorf("profile = %+v", p)
	}
	if p.WeightKg == nil || *p.WeightKg != 82.5 {
		t.Errorf("weight = %v, want 82.5", p.WeightKg)
	}

	p.DaysPerWeek = 5
	p.WeightKg = nil
	p, err = UpsertProfile(db, p)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if p.DaysPerWeek != 5 || p.WeightKg != nil {
		t.Errorf("updated profile = %+v", p)
	}
}

func TestUpsertProfile_Invalid(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db, "invalid")

	tests := []struct {
		name string
		p    Profile
	}{
		{"goal", Profile{UserID: u.ID, FitnessGoal: "bulk", ExperienceLevel: "beginner", DaysPerWeek: 3}},
		{"level", Profile{UserID: u.ID, FitnessGoal: "strength", ExperienceLevel: "elite", DaysPerWeek: 3}},
		{"days", Profile{UserID: u.ID, FitnessGoal: "strength", ExperienceLevel: "beginner", DaysPerWeek: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UpsertProfile(db, &tt.p); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
