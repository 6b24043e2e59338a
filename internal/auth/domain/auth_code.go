package domain

import "time"

// AuthCode is a single-use numeric code proving control of an email address.
// It is consumable iff !Used and now < ExpiresAt.
type AuthCode struct {
	ID        string
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
}

// Consumable reports whether the code could still be exchanged at now.
func (c AuthCode) Consumable(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
