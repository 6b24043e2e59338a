package domain

import "time"

// Profile is the free-form key/value extension of a user record.
type Profile map[string]any

// Clone returns a shallow copy so callers can merge without aliasing.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Role returns the "role" profile attribute, if it is a string.
func (p Profile) Role() string {
	s, _ := p["role"].(string)
	return s
}

// MaxActivity bounds User.Activity to the most recent entries.
const MaxActivity = 100

const (
	ActivityRegistration = "registration"
	ActivityLogin        = "login"
)

const AuthMethodCode = "code"

// Activity is one entry of a user's audit trail.
type Activity struct {
	Type      string
	At        time.Time
	IP        string
	UserAgent string
}

// User lives inside exactly one workspace. Email is unique per workspace and
// immutable once created.
type User struct {
	ID         string
	Email      string
	IsActive   bool
	AuthMethod string
	Profile    Profile
	Activity   []Activity
	LastLogin  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
