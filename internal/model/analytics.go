package model

import "time"

type Analytics struct {
	ID                  int64     `json:"id"`
	AccountID           int64     `json:"user"`
	PuzzlesCompleted    int       `json:"puzzlesCompleted"`
	TotalPuzzleAttempts int       `json:"totalPuzzleAttempts"`
	StreaksStarted      int       `json:"streaksStarted"`
	StreaksEnded        int       `json:"streaksEnded"`
	LongestStreak       int       `json:"longestStreak"`
	LastActivity        time.Time `json:"lastActivity"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
