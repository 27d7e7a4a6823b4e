package models

import "time"

// User is the persisted credential record for a single identity.
type User struct {
	ID             int64     `json:"id"`
	Identity       string    `json:"identity"`
	Secret         string    `json:"-"`
	Role           string    `json:"role"`
	LastLoginAt    time.Time `json:"lastLoginAt"`
	LoginCount     int64     `json:"loginCount"`
	RecommendCount int64     `json:"recommendCount"`
	CreatedAt      time.Time `json:"createdAt"`
}
