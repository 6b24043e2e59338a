package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/internal/auth/metrics"
	"github.com/qwanyx/qwanyx/internal/auth/notify"
	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/pkg/cryptox"
	"github.com/qwanyx/qwanyx/pkg/idx"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

const (
	CodeLength     = 6
	DefaultCodeTTL = 10 * time.Minute

	pathLogin    = "login"
	pathRegister = "register"
)

// RequestMeta describes where a request came from, for audit records.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Registration is the input of the register path.
type Registration struct {
	Email     string
	Workspace string
	// Profile is free-form metadata, cleaned by RegistrationProfile. For an
	// existing user only keys it does not have yet are stored.
	Profile map[string]any
	Meta    RequestMeta
}

// VerifyResult is returned on a successful code exchange.
type VerifyResult struct {
	Token IssuedToken
	User  domain.User
}

// CodeService issues and verifies one-time email codes.
type CodeService struct {
	Directory *Directory
	Users     *UserService
	Tokens    *TokenService
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	CodeTTL   time.Duration
	Now       func() time.Time
}

func (s *CodeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CodeService) ttl() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return DefaultCodeTTL
}

// RequestCode is the login path: the user must already exist in the
// workspace. It never creates users.
func (s *CodeService) RequestCode(ctx context.Context, email, workspace string, meta RequestMeta) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	tenant, ws, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return err
	}
	ctx = slogx.WithWorkspace(ctx, ws.Code)

	u, err := tenant.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Info("code requested for unknown user", "email", email, "ip", meta.IP)
			return ErrUserNotFound
		}
		return internal("get user by email", err)
	}
	if !u.IsActive {
		slogx.FromContext(ctx).Info("code requested for inactive user", "user_id", u.ID, "ip", meta.IP)
		return ErrUserInactive
	}

	return s.issue(ctx, tenant, ws, email, pathLogin)
}

// Register creates the user if absent, or merges the supplied profile into
// the existing one, then issues a code either way.
func (s *CodeService) Register(ctx context.Context, reg Registration) (domain.User, bool, error) {
	email, err := NormalizeEmail(reg.Email)
	if err != nil {
		return domain.User{}, false, err
	}
	tenant, ws, err := s.Directory.Resolve(ctx, reg.Workspace)
	if err != nil {
		return domain.User{}, false, err
	}
	ctx = slogx.WithWorkspace(ctx, ws.Code)

	first := &domain.Activity{
		Type:      domain.ActivityRegistration,
		At:        s.now(),
		IP:        reg.Meta.IP,
		UserAgent: reg.Meta.UserAgent,
	}
	u, created, err := s.Users.getOrCreate(ctx, tenant, email, RegistrationProfile(reg.Profile), first)
	if err != nil {
		return domain.User{}, false, err
	}
	if !u.IsActive {
		return domain.User{}, false, ErrUserInactive
	}

	if err := s.issue(ctx, tenant, ws, email, pathRegister); err != nil {
		return domain.User{}, false, err
	}
	return u, created, nil
}

// issue persists a fresh code, logs it, and attempts delivery. Delivery
// errors never fail the request.
func (s *CodeService) issue(ctx context.Context, tenant store.Tenant, ws domain.Workspace, email, path string) error {
	log := slogx.FromContext(ctx)

	code, err := cryptox.GenerateNumericCode(CodeLength)
	if err != nil {
		return internal("generate code", err)
	}

	now := s.now()
	ac := domain.AuthCode{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := tenant.AuthCodes().CreateAuthCode(ctx, ac); err != nil {
		return internal("store auth code", err)
	}
	s.Metrics.CodeIssued(ws.Code, path)

	// Operators rely on this line when mail delivery is down.
	log.Info("auth code issued",
		"email", email,
		"code", code,
		"path", path,
		"expires_at", ac.ExpiresAt,
	)

	if s.Notifier == nil {
		return nil
	}
	err = s.Notifier.SendCode(ctx, notify.CodeMessage{
		To:            email,
		Code:          code,
		WorkspaceName: ws.DisplayName(),
		TTL:           s.ttl(),
	})
	if err != nil {
		s.Metrics.DeliveryFailed(ws.Code)
		log.Warn("auth code delivery failed, code remains valid", "email", email, "err", err)
	}
	return nil
}

// Verify consumes a code and mints a token for the user, creating a minimal
// user when this is the first contact. Wrong, used and expired codes all
// yield ErrInvalidOrExpiredCode. A deactivated user burns the code and gets
// ErrUserInactive.
func (s *CodeService) Verify(ctx context.Context, email, code, workspace string, meta RequestMeta) (VerifyResult, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return VerifyResult{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return VerifyResult{}, validationf("code is required")
	}
	tenant, ws, err := s.Directory.Resolve(ctx, workspace)
	if err != nil {
		return VerifyResult{}, err
	}
	ctx = slogx.WithWorkspace(ctx, ws.Code)
	log := slogx.FromContext(ctx)

	now := s.now()
	if !cryptox.IsNumericCode(code, CodeLength) {
		log.Debug("code rejected", "email", email, "reason", "malformed")
		s.Metrics.Verified(ws.Code, "invalid")
		return VerifyResult{}, ErrInvalidOrExpiredCode
	}

	if _, err := tenant.AuthCodes().ConsumeAuthCode(ctx, email, code, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("code rejected", "email", email, "reason", "unknown, used or expired")
			s.Metrics.Verified(ws.Code, "invalid")
			return VerifyResult{}, ErrInvalidOrExpiredCode
		}
		s.Metrics.Verified(ws.Code, "error")
		return VerifyResult{}, internal("consume auth code", err)
	}

	res, err := s.completeLogin(ctx, tenant, ws, email, meta, now)
	if errors.Is(err, ErrUserInactive) {
		log.Info("code rejected", "email", email, "reason", "inactive user")
		s.Metrics.Verified(ws.Code, "inactive")
		return VerifyResult{}, err
	}
	if err != nil {
		s.Metrics.Verified(ws.Code, "error")
		return VerifyResult{}, err
	}
	s.Metrics.Verified(ws.Code, "success")
	log.Info("code verified", "user_id", res.User.ID, "email", email)
	return res, nil
}

func (s *CodeService) completeLogin(
	ctx context.Context,
	tenant store.Tenant,
	ws domain.Workspace,
	email string,
	meta RequestMeta,
	now time.Time,
) (VerifyResult, error) {
	u, _, err := s.Users.getOrCreate(ctx, tenant, email, nil, nil)
	if err != nil {
		return VerifyResult{}, err
	}
	if !u.IsActive {
		return VerifyResult{}, ErrUserInactive
	}

	login := domain.Activity{Type: domain.ActivityLogin, At: now, IP: meta.IP, UserAgent: meta.UserAgent}
	if err := tenant.Users().TouchLogin(ctx, u.ID, login); err != nil {
		return VerifyResult{}, internal("record login", err)
	}
	u.LastLogin = &now
	u.Activity = append(u.Activity, login)
	if len(u.Activity) > domain.MaxActivity {
		u.Activity = u.Activity[len(u.Activity)-domain.MaxActivity:]
	}

	err = tenant.Sessions().CreateSession(ctx, domain.Session{
		ID:         idx.NewAt(now).String(),
		UserID:     u.ID,
		LoginAt:    now,
		AuthMethod: domain.AuthMethodCode,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	if err != nil {
		return VerifyResult{}, internal("record session", err)
	}

	tok, err := s.Tokens.Mint(u, ws.Code, now)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Token: tok, User: u}, nil
}
