package model

import "time"

type PushSubscription struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"accountId"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dhKey"`
	AuthKey    string    `json:"authKey"`
	DeviceName string    `json:"deviceName"`
	CreatedAt  time.Time `json:"createdAt"`
}
