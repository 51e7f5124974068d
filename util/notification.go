package util

import (
	"time"
)

// Notification carries a user-facing message to the notifier
type Notification struct {
	Title   string
	Message string
	Delay   time.Duration
}
