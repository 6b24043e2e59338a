package mongo

import (
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
)

type workspaceDoc struct {
	Code       string    `bson:"_id"`
	Name       string    `bson:"name"`
	Domain     string    `bson:"domain,omitempty"`
	AdminEmail string    `bson:"admin_email,omitempty"`
	IsActive   bool      `bson:"is_active"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toWorkspaceDoc(w domain.Workspace) workspaceDoc {
	return workspaceDoc(w)
}

func (d workspaceDoc) domain() domain.Workspace {
	return domain.Workspace(d)
}

type activityDoc struct {
	Type      string    `bson:"type"`
	At        time.Time `bson:"at"`
	IP        string    `bson:"ip,omitempty"`
	UserAgent string    `bson:"user_agent,omitempty"`
}

type userDoc struct {
	ID         string         `bson:"_id"`
	Email      string         `bson:"email"`
	IsActive   bool           `bson:"is_active"`
	AuthMethod string         `bson:"auth_method"`
	Profile    domain.Profile `bson:"profile"`
	Activity   []activityDoc  `bson:"activity"`
	LastLogin  *time.Time     `bson:"last_login,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

func toUserDoc(u domain.User) userDoc {
	d := userDoc{
		ID:         u.ID,
		Email:      u.Email,
		IsActive:   u.IsActive,
		AuthMethod: u.AuthMethod,
		Profile:    u.Profile,
		Activity:   make([]activityDoc, 0, len(u.Activity)),
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if d.Profile == nil {
		d.Profile = domain.Profile{}
	}
	acts := u.Activity
	if len(acts) > domain.MaxActivity {
		acts = acts[len(acts)-domain.MaxActivity:]
	}
	for _, a := range acts {
		d.Activity = append(d.Activity, activityDoc(a))
	}
	return d
}

func (d userDoc) domain() domain.User {
	u := domain.User{
		ID:         d.ID,
		Email:      d.Email,
		IsActive:   d.IsActive,
		AuthMethod: d.AuthMethod,
		Profile:    d.Profile,
		LastLogin:  utcPtr(d.LastLogin),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
	if u.Profile == nil {
		u.Profile = domain.Profile{}
	}
	for _, a := range d.Activity {
		a.At = a.At.UTC()
		u.Activity = append(u.Activity, domain.Activity(a))
	}
	return u
}

type authCodeDoc struct {
	ID        string     `bson:"_id"`
	Email     string     `bson:"email"`
	Code      string     `bson:"code"`
	CreatedAt time.Time  `bson:"created_at"`
	ExpiresAt time.Time  `bson:"expires_at"`
	Used      bool       `bson:"used"`
	UsedAt    *time.Time `bson:"used_at,omitempty"`
}

func (d authCodeDoc) domain() domain.AuthCode {
	return domain.AuthCode{
		ID:        d.ID,
		Email:     d.Email,
		Code:      d.Code,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
		Used:      d.Used,
		UsedAt:    utcPtr(d.UsedAt),
	}
}

type sessionDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	LoginAt    time.Time `bson:"login_at"`
	AuthMethod string    `bson:"auth_method"`
	IP         string    `bson:"ip,omitempty"`
	UserAgent  string    `bson:"user_agent,omitempty"`
}

type contactDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Phone     string    `bson:"phone,omitempty"`
	Subject   string    `bson:"subject,omitempty"`
	Message   string    `bson:"message"`
	IP        string    `bson:"ip,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
