package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountCols = `id, role, full_name, username, email, password_hash, age, sobriety_streak,
	last_updated, puzzle_schedule, risk_profile, doctor_notes, bio, longitude, latitude,
	created_at, updated_at`

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var age sql.NullInt64
	var lastUpdated sql.NullTime
	var lon, lat sql.NullFloat64
	var schedule, risk string

	err := scanner.Scan(&a.ID, &a.Role, &a.FullName, &a.Username, &a.Email, &a.PasswordHash, &age,
		&a.SobrietyStreak, &lastUpdated, &schedule, &risk, &a.DoctorNotes, &a.Bio, &lon, &lat,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if age.Valid {
		n := int(age.Int64)
		a.Age = &n
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time.UTC()
		a.LastUpdated = &t
	}
	if lon.Valid && lat.Valid {
		a.Location = model.NewPoint(lon.Float64, lat.Float64)
	}
	if err := json.Unmarshal([]byte(schedule), &a.PuzzleSchedule); err != nil {
		return nil, fmt.Errorf("decode puzzle schedule: %w", err)
	}
	if risk != "" && risk != "{}" {
		var rp model.RiskProfile
		if err := json.Unmarshal([]byte(risk), &rp); err != nil {
			return nil, fmt.Errorf("decode risk profile: %w", err)
		}
		a.RiskProfile = &rp
	}
	return &a, nil
}

// Create inserts a new account. Role must already be canonical.
func (s *AccountStore) Create(ctx context.Context, a *model.Account) (*model.Account, error) {
	schedule := a.PuzzleSchedule
	if schedule == nil && a.Role == model.RolePatient {
		schedule = model.DefaultPuzzleSchedule
	}
	if schedule == nil {
		schedule = []string{}
	}
	scheduleJSON, err := json.Marshal(schedule)
	if err != nil {
		return nil, fmt.Errorf("encode puzzle schedule: %w", err)
	}
	riskJSON := []byte("{}")
	if a.RiskProfile != nil {
		if riskJSON, err = json.Marshal(a.RiskProfile); err != nil {
			return nil, fmt.Errorf("encode risk profile: %w", err)
		}
	}

	var age, lon, lat any
	if a.Age != nil {
		age = *a.Age
	}
	if a.Location != nil {
		lon, lat = a.Location.Coordinates[0], a.Location.Coordinates[1]
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (role, full_name, username, email, password_hash, age, puzzle_schedule,
		 risk_profile, doctor_notes, bio, longitude, latitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.Role), a.FullName, a.Username, strings.ToLower(a.Email), a.PasswordHash, age,
		string(scheduleJSON), string(riskJSON), a.DoctorNotes, a.Bio, lon, lat,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AccountStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE email = ?`, strings.ToLower(email))
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	if username == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE username = ?`, username)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return a, nil
}

// GetByLogin resolves an identifier that may be either a username or an email.
// An exact username match wins over another account's email.
func (s *AccountStore) GetByLogin(ctx context.Context, identifier string) (*model.Account, error) {
	if identifier == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE username = ? OR email = ?
		 ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END, id LIMIT 1`,
		identifier, strings.ToLower(identifier), identifier,
	)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by login: %w", err)
	}
	return a, nil
}

// LoadRelations fills the contact, reward and roster id lists on a.
func (s *AccountStore) LoadRelations(ctx context.Context, a *model.Account) error {
	var err error
	if a.EmergencyContacts, err = s.ListEmergencyContacts(ctx, a.ID); err != nil {
		return err
	}
	if a.Rewards, err = s.RewardIDs(ctx, a.ID); err != nil {
		return err
	}
	if a.Role == model.RoleDoctor {
		if a.Patients, err = s.patientIDs(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// SaveStreak writes the streak counter and lastUpdated as absolute values.
func (s *AccountStore) SaveStreak(ctx context.Context, id int64, streak int, lastUpdated time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET sobriety_streak = ?, last_updated = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		streak, lastUpdated.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

// SetStreak writes the streak counter without touching lastUpdated.
func (s *AccountStore) SetStreak(ctx context.Context, id int64, streak int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET sobriety_streak = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		streak, id,
	)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

func (s *AccountStore) AppendHistory(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streak_history (account_id, recorded_at) VALUES (?, ?)`, id, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append streak history: %w", err)
	}
	return nil
}

// ResetHistory replaces the whole history with entries (possibly none).
func (s *AccountStore) ResetHistory(ctx context.Context, id int64, entries ...time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM streak_history WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("clear streak history: %w", err)
	}
	for _, at := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO streak_history (account_id, recorded_at) VALUES (?, ?)`, id, at.UTC(),
		); err != nil {
			return fmt.Errorf("insert streak history: %w", err)
		}
	}
	return tx.Commit()
}

func (s *AccountStore) StreakHistory(ctx context.Context, id int64) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recorded_at FROM streak_history WHERE account_id = ? ORDER BY id ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("list streak history: %w", err)
	}
	defer rows.Close()

	history := []time.Time{}
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("scan streak history: %w", err)
		}
		history = append(history, at.UTC())
	}
	return history, rows.Err()
}

// --- Emergency contacts ---

// AddEmergencyContact is idempotent: the contacts form a set.
func (s *AccountStore) AddEmergencyContact(ctx context.Context, patientID, contactID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO emergency_contacts (patient_id, contact_id) VALUES (?, ?)`,
		patientID, contactID,
	)
	if err != nil {
		return fmt.Errorf("add emergency contact: %w", err)
	}
	return nil
}

func (s *AccountStore) RemoveEmergencyContact(ctx context.Context, patientID, contactID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM emergency_contacts WHERE patient_id = ? AND contact_id = ?`,
		patientID, contactID,
	)
	if err != nil {
		return fmt.Errorf("remove emergency contact: %w", err)
	}
	return nil
}

func (s *AccountStore) ListEmergencyContacts(ctx context.Context, patientID int64) ([]int64, error) {
	return s.queryIDs(ctx, "list emergency contacts",
		`SELECT contact_id FROM emergency_contacts WHERE patient_id = ? ORDER BY created_at, contact_id`, patientID)
}

// --- Rewards held ---

func (s *AccountStore) AppendReward(ctx context.Context, accountID, rewardID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account_rewards (account_id, reward_id) VALUES (?, ?)`, accountID, rewardID,
	)
	if err != nil {
		return fmt.Errorf("append reward: %w", err)
	}
	return nil
}

func (s *AccountStore) RewardIDs(ctx context.Context, accountID int64) ([]int64, error) {
	return s.queryIDs(ctx, "list account rewards",
		`SELECT reward_id FROM account_rewards WHERE account_id = ? ORDER BY id ASC`, accountID)
}

// --- Doctor roster ---

func (s *AccountStore) AddPatient(ctx context.Context, doctorID, patientID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO doctor_patients (doctor_id, patient_id) VALUES (?, ?)`,
		doctorID, patientID,
	)
	if err != nil {
		return fmt.Errorf("add patient to roster: %w", err)
	}
	return nil
}

// HasPatient reports whether the doctor's roster lists the patient.
func (s *AccountStore) HasPatient(ctx context.Context, doctorID, patientID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM doctor_patients WHERE doctor_id = ? AND patient_id = ?)`,
		doctorID, patientID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check roster: %w", err)
	}
	return ok, nil
}

// ListPatients returns the full accounts on a doctor's roster.
func (s *AccountStore) ListPatients(ctx context.Context, doctorID int64) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+prefixCols("a", accountCols)+` FROM accounts a
		 JOIN doctor_patients dp ON dp.patient_id = a.id
		 WHERE dp.doctor_id = ? ORDER BY dp.created_at, a.id`, doctorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, *a)
	}
	return patients, rows.Err()
}

// FindDoctorForPatient returns the first doctor whose roster lists the
// patient, or nil when none does.
func (s *AccountStore) FindDoctorForPatient(ctx context.Context, patientID int64) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+prefixCols("a", accountCols)+` FROM accounts a
		 JOIN doctor_patients dp ON dp.doctor_id = a.id
		 WHERE dp.patient_id = ? ORDER BY dp.created_at, a.id LIMIT 1`, patientID,
	)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find doctor for patient: %w", err)
	}
	return a, nil
}

func (s *AccountStore) patientIDs(ctx context.Context, doctorID int64) ([]int64, error) {
	return s.queryIDs(ctx, "list roster",
		`SELECT patient_id FROM doctor_patients WHERE doctor_id = ? ORDER BY created_at, patient_id`, doctorID)
}

func (s *AccountStore) queryIDs(ctx context.Context, op, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// prefixCols qualifies a column list with a table alias.
func prefixCols(alias, cols string) string {
	fields := strings.Split(cols, ",")
	for i, f := range fields {
		fields[i] = alias + "." + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}
