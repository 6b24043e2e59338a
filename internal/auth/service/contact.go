package service

import (
	"context"
	"strings"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/pkg/idx"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

// ContactInput is a message submitted through a workspace's contact form.
type ContactInput struct {
	Workspace string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	IP        string
}

const maxContactMessage = 10_000

type ContactService struct {
	Directory *Directory
	Now       func() time.Time
}

func (s *ContactService) Submit(ctx context.Context, in ContactInput) (domain.Contact, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return domain.Contact{}, err
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return domain.Contact{}, validationf("message is required")
	}
	if len(msg) > maxContactMessage {
		return domain.Contact{}, validationf("message exceeds %d bytes", maxContactMessage)
	}

	tenant, _, err := s.Directory.Resolve(ctx, in.Workspace)
	if err != nil {
		return domain.Contact{}, err
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	c := domain.Contact{
		ID:        idx.NewAt(now).String(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   msg,
		IP:        in.IP,
		CreatedAt: now,
	}
	if err := tenant.Contacts().CreateContact(ctx, c); err != nil {
		return domain.Contact{}, internal("store contact", err)
	}
	slogx.FromContext(ctx).Info("contact message stored", "workspace", tenant.Code(), "contact_id", c.ID)
	return c, nil
}
