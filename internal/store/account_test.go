package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

func setupAccountTestDB(t *testing.T) *AccountStore {
	t.Helper()
	return NewAccountStore(openTestDB(t))
}

func TestAccountCreatePatient(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	age := 34
	a, err := as.Create(ctx, &model.Account{
		Role:         model.RolePatient,
		FullName:     "Jamie Doe",
		Username:     "jamie",
		Email:        "Jamie@Example.com",
		PasswordHash: "hash",
		Age:          &age,
		RiskProfile: &model.RiskProfile{
			SadPerson: model.RiskGroup{Values: [5]float64{1, 0, 1, 0, 1}, Weights: 0.4},
		},
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if a.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if a.Email != "jamie@example.com" {
		t.Errorf("email = %q, want %q", a.Email, "jamie@example.com")
	}
	if a.SobrietyStreak != 0 {
		t.Errorf("sobriety_streak = %d, want 0", a.SobrietyStreak)
	}
	if a.LastUpdated != nil {
		t.Errorf("last_updated = %v, want nil", a.LastUpdated)
	}
	if len(a.PuzzleSchedule) != 3 || a.PuzzleSchedule[0] != "09:00" {
		t.Errorf("puzzle_schedule = %v, want default", a.PuzzleSchedule)
	}
	if a.Age == nil || *a.Age != 34 {
		t.Errorf("age = %v, want 34", a.Age)
	}
	if a.RiskProfile == nil || a.RiskProfile.SadPerson.Weights != 0.4 {
		t.Errorf("risk profile = %+v, want sadPerson weight 0.4", a.RiskProfile)
	}
}

func TestAccountCreateDoctorLocation(t *testing.T) {
	as := setupAccountTestDB(t)

	d, err := as.Create(context.Background(), &model.Account{
		Role:         model.RoleDoctor,
		FullName:     "Dr. Who",
		Email:        "doc@example.com",
		PasswordHash: "hash",
		Location:     model.NewPoint(-122.4, 37.7),
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	if d.Location == nil {
		t.Fatal("expected location")
	}
	if d.Location.Type != "Point" || d.Location.Coordinates != [2]float64{-122.4, 37.7} {
		t.Errorf("location = %+v", d.Location)
	}
	if len(d.PuzzleSchedule) != 0 {
		t.Errorf("doctor puzzle_schedule = %v, want empty", d.PuzzleSchedule)
	}
}

func TestAccountCreateDuplicateEmail(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	a := &model.Account{Role: model.RolePatient, FullName: "A", Email: "a@example.com", PasswordHash: "x"}
	if _, err := as.Create(ctx, a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := as.Create(ctx, a); err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
}

func TestAccountGetByIDNotFound(t *testing.T) {
	as := setupAccountTestDB(t)

	a, err := as.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil, got %+v", a)
	}
}

func TestAccountGetByLogin(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	created, err := as.Create(ctx, &model.Account{
		Role: model.RolePatient, FullName: "Sam", Username: "sam", Email: "sam@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	for _, id := range []string{"sam", "sam@example.com", "SAM@example.com"} {
		a, err := as.GetByLogin(ctx, id)
		if err != nil {
			t.Fatalf("get by login %q: %v", id, err)
		}
		if a == nil || a.ID != created.ID {
			t.Errorf("get by login %q = %+v, want id %d", id, a, created.ID)
		}
	}

	a, err := as.GetByLogin(ctx, "nobody")
	if err != nil {
		t.Fatalf("get by login: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil for unknown login, got %+v", a)
	}
}

func TestAccountGetByLoginPrefersUsername(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	byEmail, err := as.Create(ctx, &model.Account{
		Role: model.RolePatient, FullName: "Kim", Username: "kim", Email: "kim@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	byName, err := as.Create(ctx, &model.Account{
		Role: model.RolePatient, FullName: "Other", Username: "kim@example.com", Email: "other@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	a, err := as.GetByLogin(ctx, "kim@example.com")
	if err != nil {
		t.Fatalf("get by login: %v", err)
	}
	if a == nil || a.ID != byName.ID {
		t.Errorf("get by login = %+v, want username match id %d (not email match %d)", a, byName.ID, byEmail.ID)
	}
}

func TestAccountGetByUsername(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	created, err := as.Create(ctx, &model.Account{
		Role: model.RoleDoctor, FullName: "Dr Lee", Username: "drlee", Email: "lee@example.com", PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	a, err := as.GetByUsername(ctx, "drlee")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if a == nil || a.ID != created.ID {
		t.Errorf("get by username = %+v, want id %d", a, created.ID)
	}

	// An email is not a username.
	a, err = as.GetByUsername(ctx, "lee@example.com")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if a != nil {
		t.Errorf("expected nil for email lookup, got %+v", a)
	}
}

func TestAccountSaveStreak(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()
	p := createTestAccount(t, as.db, model.RolePatient, "p@example.com")

	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if err := as.SaveStreak(ctx, p.ID, 5, now); err != nil {
		t.Fatalf("save streak: %v", err)
	}

	got, _ := as.GetByID(ctx, p.ID)
	if got.SobrietyStreak != 5 {
		t.Errorf("sobriety_streak = %d, want 5", got.SobrietyStreak)
	}
	if got.LastUpdated == nil || !got.LastUpdated.Equal(now) {
		t.Errorf("last_updated = %v, want %v", got.LastUpdated, now)
	}

	if err := as.SetStreak(ctx, p.ID, 6); err != nil {
		t.Fatalf("set streak: %v", err)
	}
	got, _ = as.GetByID(ctx, p.ID)
	if got.SobrietyStreak != 6 {
		t.Errorf("sobriety_streak = %d, want 6", got.SobrietyStreak)
	}
	if got.LastUpdated == nil || !got.LastUpdated.Equal(now) {
		t.Errorf("set streak changed last_updated to %v", got.LastUpdated)
	}
}

func TestAccountRejectsNegativeStreak(t *testing.T) {
	as := setupAccountTestDB(t)
	p := createTestAccount(t, as.db, model.RolePatient, "p@example.com")

	if err := as.SetStreak(context.Background(), p.ID, -1); err == nil {
		t.Fatal("expected check constraint error for negative streak")
	}
}

func TestAccountStreakHistory(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()
	p := createTestAccount(t, as.db, model.RolePatient, "p@example.com")

	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	as.AppendHistory(ctx, p.ID, day1)
	as.AppendHistory(ctx, p.ID, day2)

	history, err := as.StreakHistory(ctx, p.ID)
	if err != nil {
		t.Fatalf("streak history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len = %d, want 2", len(history))
	}
	if !history[0].Equal(day1) || !history[1].Equal(day2) {
		t.Errorf("history = %v, want [%v %v]", history, day1, day2)
	}

	if err := as.ResetHistory(ctx, p.ID); err != nil {
		t.Fatalf("reset history: %v", err)
	}
	history, _ = as.StreakHistory(ctx, p.ID)
	if len(history) != 0 {
		t.Errorf("len after clear = %d, want 0", len(history))
	}

	if err := as.ResetHistory(ctx, p.ID, day2); err != nil {
		t.Fatalf("reset history with entry: %v", err)
	}
	history, _ = as.StreakHistory(ctx, p.ID)
	if len(history) != 1 || !history[0].Equal(day2) {
		t.Errorf("history = %v, want [%v]", history, day2)
	}
}

func TestAccountEmergencyContactsAreASet(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()
	p := createTestAccount(t, as.db, model.RolePatient, "p@example.com")
	c := createTestAccount(t, as.db, model.RoleEmergencyContact, "c@example.com")

	as.AddEmergencyContact(ctx, p.ID, c.ID)
	if err := as.AddEmergencyContact(ctx, p.ID, c.ID); err != nil {
		t.Fatalf("duplicate add should not error: %v", err)
	}

	ids, err := as.ListEmergencyContacts(ctx, p.ID)
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	if len(ids) != 1 || ids[0] != c.ID {
		t.Errorf("contacts = %v, want [%d]", ids, c.ID)
	}

	if err := as.RemoveEmergencyContact(ctx, p.ID, c.ID); err != nil {
		t.Fatalf("remove contact: %v", err)
	}
	ids, _ = as.ListEmergencyContacts(ctx, p.ID)
	if len(ids) != 0 {
		t.Errorf("contacts after remove = %v, want empty", ids)
	}
}

func TestAccountDoctorRoster(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()
	d := createTestAccount(t, as.db, model.RoleDoctor, "d@example.com")
	p := createTestAccount(t, as.db, model.RolePatient, "p@example.com")
	other := createTestAccount(t, as.db, model.RolePatient, "o@example.com")

	if err := as.AddPatient(ctx, d.ID, p.ID); err != nil {
		t.Fatalf("add patient: %v", err)
	}

	patients, err := as.ListPatients(ctx, d.ID)
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(patients) != 1 || patients[0].ID != p.ID {
		t.Errorf("patients = %+v, want [%d]", patients, p.ID)
	}

	doc, err := as.FindDoctorForPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("find doctor: %v", err)
	}
	if doc == nil || doc.ID != d.ID {
		t.Errorf("doctor = %+v, want id %d", doc, d.ID)
	}

	doc, err = as.FindDoctorForPatient(ctx, other.ID)
	if err != nil {
		t.Fatalf("find doctor: %v", err)
	}
	if doc != nil {
		t.Errorf("expected no doctor, got %+v", doc)
	}

	for _, tt := range []struct {
		patient int64
		want    bool
	}{{p.ID, true}, {other.ID, false}} {
		got, err := as.HasPatient(ctx, d.ID, tt.patient)
		if err != nil {
			t.Fatalf("has patient: %v", err)
		}
		if got != tt.want {
			t.Errorf("HasPatient(%d, %d) = %v, want %v", d.ID, tt.patient, got, tt.want)
		}
	}
}

func TestAccountLoadRelations(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()
	d := createTestAccount(t, as.db, model.RoleDoctor, "d@example.com")
	p := createTestAccount(t, as.db, model.RolePatient, "p@example.com")
	c := createTestAccount(t, as.db, model.RoleEmergencyContact, "c@example.com")

	as.AddPatient(ctx, d.ID, p.ID)
	as.AddEmergencyContact(ctx, p.ID, c.ID)
	r, err := NewRewardStore(as.db).Create(ctx, p.ID, 7, model.RewardBadge, "7-Day Streak Badge")
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	as.AppendReward(ctx, p.ID, r.ID)

	if err := as.LoadRelations(ctx, p); err != nil {
		t.Fatalf("load relations: %v", err)
	}
	if len(p.EmergencyContacts) != 1 || p.EmergencyContacts[0] != c.ID {
		t.Errorf("contacts = %v", p.EmergencyContacts)
	}
	if len(p.Rewards) != 1 || p.Rewards[0] != r.ID {
		t.Errorf("rewards = %v", p.Rewards)
	}

	if err := as.LoadRelations(ctx, d); err != nil {
		t.Fatalf("load doctor relations: %v", err)
	}
	if len(d.Patients) != 1 || d.Patients[0] != p.ID {
		t.Errorf("roster = %v", d.Patients)
	}
}
