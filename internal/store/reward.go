package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/steady/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var claimed int

	err := scanner.Scan(&r.ID, &r.AccountID, &r.StreakMilestone, &r.RewardType, &r.RewardValue, &claimed, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Claimed = claimed != 0
	return &r, nil
}

const rewardCols = `id, account_id, streak_milestone, reward_type, reward_value, claimed, created_at`

// Create inserts an unclaimed reward row. It does not attach the reward to
// the account's held list; see AccountStore.AppendReward.
func (s *RewardStore) Create(ctx context.Context, accountID int64, milestone int, rewardType model.RewardType, value string) (*model.Reward, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO rewards (account_id, streak_milestone, reward_type, reward_value) VALUES (?, ?, ?, ?)`,
		accountID, milestone, string(rewardType), value,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// ListByAccount returns an account's rewards, newest first.
func (s *RewardStore) ListByAccount(ctx context.Context, accountID int64) ([]model.Reward, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rewardCols+` FROM rewards WHERE account_id = ? ORDER BY created_at DESC, id DESC`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	rewards := []model.Reward{}
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}
