package model

import "time"

// PushSubscription is a browser endpoint that receives trip notifications.
type PushSubscription struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
