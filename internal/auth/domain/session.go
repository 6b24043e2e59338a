package domain

import "time"

// Session is an append-only audit record written at each successful
// verification.
type Session struct {
	ID         string
	UserID     string
	LoginAt    time.Time
	AuthMethod string
	IP         string
	UserAgent  string
}
