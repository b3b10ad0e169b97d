package recovery

import (
	"context"
	"log/slog"

	"github.com/dukerupert/steady/internal/metrics"
	"github.com/dukerupert/steady/internal/model"
)

// Milestones are the streak lengths that carry a reward, ascending.
var Milestones = []int{7, 30, 90}

type rewardDef struct {
	typ   model.RewardType
	value string
}

var rewardTable = map[int]rewardDef{
	7:  {model.RewardBadge, "7-Day Streak Badge"},
	30: {model.RewardPoints, "100"},
	90: {model.RewardDiscount, "10"},
}

func IsMilestone(n int) bool {
	_, ok := rewardTable[n]
	return ok
}

// RewardDispenser turns milestone crossings into reward rows.
type RewardDispenser struct {
	accounts AccountRepository
	rewards  RewardRepository
	logger   *slog.Logger
}

func NewRewardDispenser(accounts AccountRepository, rewards RewardRepository, logger *slog.Logger) *RewardDispenser {
	return &RewardDispenser{
		accounts: accounts,
		rewards:  rewards,
		logger:   logger.With("component", "reward"),
	}
}

// Award creates an unclaimed reward for the milestone and appends it to the
// account's held rewards. Repeated awards are not deduplicated. The two
// writes are independent: a failure on the second leaves an orphan reward.
func (d *RewardDispenser) Award(ctx context.Context, accountID int64, milestone int) (*model.Reward, error) {
	const op = "reward.Award"

	def, ok := rewardTable[milestone]
	if !ok {
		return nil, withOp(op, ErrNoRewardDefined)
	}

	r, err := d.rewards.Create(ctx, accountID, milestone, def.typ, def.value)
	if err != nil {
		return nil, internal(op, err)
	}
	if err := d.accounts.AppendReward(ctx, accountID, r.ID); err != nil {
		return nil, internal(op, err)
	}

	metrics.RewardAwarded(milestone)
	d.logger.Info("reward awarded", "account_id", accountID, "milestone", milestone, "reward_id", r.ID)
	return r, nil
}

// List returns the account's rewards, newest first.
func (d *RewardDispenser) List(ctx context.Context, accountID int64) ([]model.Reward, error) {
	rewards, err := d.rewards.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, internal("reward.List", err)
	}
	return rewards, nil
}
