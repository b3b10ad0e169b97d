package model

import "time"

type Puzzle struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Completed     bool      `json:"completed"`
	ScheduledTime time.Time `json:"scheduledTime"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
