package model

import "time"

type RewardType string

const (
	RewardBadge    RewardType = "badge"
	RewardPoints   RewardType = "points"
	RewardDiscount RewardType = "discount"
)

// Reward is granted when a streak reaches a milestone. Claimed is never set
// by any current rule.
type Reward struct {
	ID              int64      `json:"id"`
	AccountID       int64      `json:"user"`
	StreakMilestone int        `json:"streakMilestone"`
	RewardType      RewardType `json:"rewardType"`
	RewardValue     string     `json:"rewardValue"`
	Claimed         bool       `json:"claimed"`
	CreatedAt       time.Time  `json:"createdAt"`
}
