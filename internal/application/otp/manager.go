package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/infrastructure/smtp"
)

// Channel selects how a code is dispatched to the user.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Purpose selects the message template wrapped around the code.
type Purpose string

const (
	PurposeVerification Purpose = "verification"
	PurposeRecovery     Purpose = "recovery"
)

type otpStore interface {
	Upsert(ctx context.Context, o *domain.OTP) error
	Consume(ctx context.Context, userID, code string) (*domain.OTP, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Manager issues and verifies one-time passwords. Each user has at most one
// live code: issuing again overwrites the previous record, so only the latest
// code verifies.
type Manager struct {
	store     otpStore
	mailer    mailer
	smsSender smsSender
	ttl       time.Duration
	now       func() time.Time
}

type ManagerDeps struct {
	Store     otpStore
	Mailer    mailer
	SMSSender smsSender
	TTL       time.Duration
	Now       func() time.Time // nil means time.Now
}

func NewManager(deps ManagerDeps) *Manager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:     deps.Store,
		mailer:    deps.Mailer,
		smsSender: deps.SMSSender,
		ttl:       deps.TTL,
		now:       now,
	}
}

// Issue generates a fresh code, dispatches it over the requested channel and
// only then persists it. A dispatch failure leaves no live code behind; a
// persist failure after dispatch leaves a delivered code that never verifies.
// Both failure modes fail closed.
func (m *Manager) Issue(ctx context.Context, u *domain.User, channel Channel, purpose Purpose) error {
	code, err := generateCode()
	if err != nil {
		return err
	}

	switch channel {
	case ChannelSMS:
		if u.Phone == nil || *u.Phone == "" {
			return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
		}
		if m.smsSender == nil {
			return fmt.Errorf("sms delivery unavailable: %w", domain.ErrInternal)
		}
		if err := m.smsSender.SendSMS(ctx, *u.Phone, "Your verification code: "+code); err != nil {
			return err
		}
	default:
		var subject, body string
		if purpose == PurposeRecovery {
			subject, body = smtp.RecoveryEmail(u.FirstName, code)
		} else {
			subject, body = smtp.VerificationEmail(u.FirstName, code)
		}
		if err := m.mailer.SendEmail(u.Email, subject, body); err != nil {
			return err
		}
	}

	return m.store.Upsert(ctx, &domain.OTP{
		UserID:    u.UserID,
		Code:      code,
		ExpiresAt: m.now().Add(m.ttl).Unix(),
	})
}

// Verify consumes the user's code. A wrong code, an already-consumed code or
// a missing record yields ErrNotFound; a matching but expired code yields
// ErrRequestTimeout. The consume is atomic, so a code verifies at most once
// even under concurrent attempts.
func (m *Manager) Verify(ctx context.Context, userID, code string) error {
	rec, err := m.store.Consume(ctx, userID, code)
	if err != nil {
		return err
	}
	if rec.ExpiresAt < m.now().Unix() {
		return fmt.Errorf("verification code expired: %w", domain.ErrRequestTimeout)
	}
	return nil
}

// generateCode returns a uniformly random 4-digit code in [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
