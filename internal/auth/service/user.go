package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/internal/auth/metrics"
	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/pkg/idx"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

// RoleAdmin in a user's profile grants workspace user management.
const RoleAdmin = "admin"

// AdminFields may be written by a workspace admin.
var AdminFields = []string{
	"first_name", "last_name", "name", "role", "status",
	"phone", "department", "job_title", "avatar",
}

// ProfileFields may be written by users on their own record.
var ProfileFields = []string{
	"account_type", "pro_types", "company_name", "vat_number",
	"first_name", "last_name", "phone", "address", "city",
	"postal_code", "country",
}

// reservedProfileKeys are identity, audit and privilege attributes that
// registration metadata may never carry.
var reservedProfileKeys = map[string]struct{}{
	"id": {}, "_id": {}, "email": {}, "created_at": {}, "updated_at": {},
	"last_login": {}, "activity": {}, "auth_method": {}, "is_active": {},
	"role": {}, "status": {}, "workspace": {},
}

// profileKeyPattern keeps keys usable as document field paths.
var profileKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)

// UserService manages the users of one workspace at a time. Identity and
// audit fields (id, email, created_at, last_login, activity, auth_method) are
// never writable through it.
type UserService struct {
	Directory *Directory
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// GetOrCreate returns the user with email, creating it with profile when
// absent. For an existing user only the profile keys it does not have yet are
// added; stored values are never replaced, so repeating the call with the
// same input yields the same record. created reports whether this call
// inserted the user.
func (s *UserService) GetOrCreate(
	ctx context.Context,
	workspace, email string,
	profile domain.Profile,
	first *domain.Activity,
) (u domain.User, created bool, err error) {
	email, err = NormalizeEmail(email)
	if err != nil {
		return domain.User{}, false, err
	}
	tenant, _, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return domain.User{}, false, err
	}
	return s.getOrCreate(ctx, tenant, email, profile, first)
}

func (s *UserService) getOrCreate(
	ctx context.Context,
	tenant store.Tenant,
	email string,
	profile domain.Profile,
	first *domain.Activity,
) (domain.User, bool, error) {
	users := tenant.Users()

	existing, err := users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		u, err := s.fillIfAny(ctx, tenant, existing, profile)
		return u, false, err
	case !errors.Is(err, store.ErrNotFound):
		return domain.User{}, false, internal("get user by email", err)
	}

	now := s.now()
	u := domain.User{
		ID:         idx.NewAt(now).String(),
		Email:      email,
		IsActive:   true,
		AuthMethod: domain.AuthMethodCode,
		Profile:    profile.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if first != nil {
		u.Activity = []domain.Activity{*first}
	}

	err = users.CreateUser(ctx, u)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost an insert race; the winner's record is the user.
		existing, err = users.GetUserByEmail(ctx, email)
		if err != nil {
			return domain.User{}, false, internal("get user after insert race", err)
		}
		u, err := s.fillIfAny(ctx, tenant, existing, profile)
		return u, false, err
	}
	if err != nil {
		return domain.User{}, false, internal("create user", err)
	}

	s.Metrics.UserCreated(tenant.Code())
	slogx.FromContext(ctx).Info("user created", "user_id", u.ID)
	return u, true, nil
}

func (s *UserService) fillIfAny(ctx context.Context, tenant store.Tenant, u domain.User, profile domain.Profile) (domain.User, error) {
	if len(profile) == 0 {
		return u, nil
	}
	filled, err := tenant.Users().FillProfile(ctx, u.ID, profile, s.now())
	if err != nil {
		return domain.User{}, userErr("fill profile", err)
	}
	return filled, nil
}

// Create inserts a new user on behalf of an admin. A taken email is a
// conflict rather than a merge.
func (s *UserService) Create(ctx context.Context, workspace, email string, fields map[string]any) (domain.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	tenant, _, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	u := domain.User{
		ID:         idx.NewAt(now).String(),
		Email:      email,
		IsActive:   true,
		AuthMethod: domain.AuthMethodCode,
		Profile:    FilterFields(fields, AdminFields),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tenant.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, userErr("create user", err)
	}
	s.Metrics.UserCreated(tenant.Code())
	return u, nil
}

func (s *UserService) Get(ctx context.Context, workspace, userID string) (domain.User, error) {
	tenant, _, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return domain.User{}, err
	}
	u, err := tenant.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, userErr("get user", err)
	}
	return u, nil
}

// List returns one page of users and the workspace total.
func (s *UserService) List(ctx context.Context, workspace string, limit, offset int) ([]domain.User, int, error) {
	tenant, _, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return nil, 0, err
	}
	users, err := tenant.Users().ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, 0, internal("list users", err)
	}
	total, err := tenant.Users().CountUsers(ctx)
	if err != nil {
		return nil, 0, internal("count users", err)
	}
	return users, total, nil
}

// Update merges the admin allow-list of fields into the user's profile. A
// boolean "is_active" activates or deactivates the account. Unknown fields
// are ignored; no allowed field at all is a validation error.
func (s *UserService) Update(ctx context.Context, workspace, userID string, fields map[string]any) (domain.User, error) {
	var active *bool
	if v, ok := fields["is_active"].(bool); ok {
		active = &v
	}
	return s.update(ctx, workspace, userID, FilterFields(fields, AdminFields), active)
}

// UpdateOwnProfile lets callerID edit their own profile allow-list.
func (s *UserService) UpdateOwnProfile(ctx context.Context, workspace, callerID, userID string, fields map[string]any) (domain.User, error) {
	if callerID == "" || callerID != userID {
		return domain.User{}, ErrForbidden
	}
	return s.update(ctx, workspace, userID, FilterFields(fields, ProfileFields), nil)
}

func (s *UserService) update(ctx context.Context, workspace, userID string, patch domain.Profile, active *bool) (domain.User, error) {
	if len(patch) == 0 && active == nil {
		return domain.User{}, validationf("no updatable fields supplied")
	}
	tenant, _, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return domain.User{}, err
	}
	users := tenant.Users()

	if active != nil {
		if err := users.SetUserActive(ctx, userID, *active, s.now()); err != nil {
			return domain.User{}, userErr("set user active", err)
		}
		slogx.FromContext(ctx).Info("user active flag changed", "user_id", userID, "active", *active)
	}
	if len(patch) == 0 {
		return s.Get(ctx, workspace, userID)
	}

	u, err := users.MergeProfile(ctx, userID, patch, s.now())
	if err != nil {
		return domain.User{}, userErr("update user", err)
	}
	return u, nil
}

// Delete removes a user. Sessions are kept as audit records.
func (s *UserService) Delete(ctx context.Context, workspace, userID string) error {
	tenant, _, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return err
	}
	if err := tenant.Users().DeleteUser(ctx, userID); err != nil {
		return userErr("delete user", err)
	}
	slogx.FromContext(ctx).Info("user deleted", "user_id", userID)
	return nil
}

// Sessions lists the newest sessions of userID.
func (s *UserService) Sessions(ctx context.Context, workspace, userID string, limit int) ([]domain.Session, error) {
	tenant, _, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return nil, err
	}
	out, err := tenant.Sessions().ListUserSessions(ctx, userID, limit)
	if err != nil {
		return nil, internal("list sessions", err)
	}
	return out, nil
}

// RequireAdmin fails with ErrForbidden unless callerID has the admin role in
// workspace.
func (s *UserService) RequireAdmin(ctx context.Context, workspace, callerID string) error {
	caller, err := s.Get(ctx, workspace, callerID)
	if errors.Is(err, ErrUserNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if !caller.IsActive || caller.Profile.Role() != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// FilterFields keeps the allowed keys whose values are JSON scalars or lists
// of scalars. Nested objects are dropped.
func FilterFields(fields map[string]any, allow []string) domain.Profile {
	out := domain.Profile{}
	for _, k := range allow {
		v, ok := fields[k]
		if !ok || !isPlainValue(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// RegistrationProfile keeps the free-form metadata supplied at registration,
// dropping reserved keys, keys that are not plain identifiers, and values
// that are not JSON scalars or lists of scalars.
func RegistrationProfile(fields map[string]any) domain.Profile {
	out := domain.Profile{}
	for k, v := range fields {
		if _, reserved := reservedProfileKeys[k]; reserved {
			continue
		}
		if !profileKeyPattern.MatchString(k) || !isPlainValue(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func isPlainValue(v any) bool {
	switch t := v.(type) {
	case string, bool, float64, float32, int, int32, int64:
		return true
	case []any:
		for _, e := range t {
			switch e.(type) {
			case string, bool, float64, int:
			default:
				return false
			}
		}
		return true
	case []string:
		return true
	default:
		return false
	}
}
