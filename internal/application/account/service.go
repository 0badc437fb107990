package account

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campus-auth-api/internal/domain"
	"github.com/campus-auth-api/internal/pkg/id"
	"github.com/campus-auth-api/internal/pkg/otp"
)

// otpTTL is how long a verification code stays valid after signup.
const otpTTL = 5 * time.Minute

// Uniform failure answers. Lookup, comparison and expiry failures all
// collapse into the same error so responses leak nothing about which
// accounts or codes exist.
var (
	errInvalidCode        = fmt.Errorf("invalid or expired code: %w", domain.ErrBadRequest)
	errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
)

type Service interface {
	Register(ctx context.Context, role domain.Role, req domain.SignupRequest) error
	VerifyOTP(ctx context.Context, role domain.Role, req domain.VerifyOTPRequest) error
	Login(ctx context.Context, role domain.Role, req domain.LoginRequest) (*domain.Profile, error)
}

type accountStore interface {
	PutNew(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, email string, role domain.Role) (*domain.Account, error)
	MarkVerified(ctx context.Context, email string, role domain.Role) error
}

type challengeStore interface {
	Put(ctx context.Context, c *domain.OTPChallenge) error
	Get(ctx context.Context, email string, role domain.Role) (*domain.OTPChallenge, error)
	Delete(ctx context.Context, email string, role domain.Role) error
}

type outboxStore interface {
	Enqueue(ctx context.Context, m *domain.OutboxMessage) error
}

type service struct {
	accounts   accountStore
	challenges challengeStore
	outbox     outboxStore
}

type ServiceDeps struct {
	AccountRepo   accountStore
	ChallengeRepo challengeStore
	OutboxRepo    outboxStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:   deps.AccountRepo,
		challenges: deps.ChallengeRepo,
		outbox:     deps.OutboxRepo,
	}
}

// Register creates an unverified account and queues the verification email.
// Uniqueness of (email, role) is enforced by the conditional write in the
// account store, so concurrent signups for the same key cannot both succeed.
// The email is sent asynchronously by the outbox dispatcher; a signup is
// reported successful as soon as its records are persisted.
func (s *service) Register(ctx context.Context, role domain.Role, req domain.SignupRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		PasswordHash: string(hash),
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.PutNew(ctx, a); err != nil {
		return err
	}

	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	ch := &domain.OTPChallenge{
		Email:     req.Email,
		Role:      role,
		Code:      code,
		ExpiresAt: now.Add(otpTTL).Unix(),
	}
	if err := s.challenges.Put(ctx, ch); err != nil {
		return err
	}

	subject, body := verificationEmail(req.Name, code)
	m := &domain.OutboxMessage{
		MessageID:     id.New(),
		Recipient:     req.Email,
		Subject:       subject,
		Body:          body,
		Status:        domain.OutboxStatusPending,
		Attempts:      0,
		NextAttemptAt: now.Unix(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.outbox.Enqueue(ctx, m)
}

// VerifyOTP flips an account to verified when the submitted code matches a
// live challenge. Client failure modes (no account, no challenge, wrong or
// expired code) all return the same error; store outages propagate as-is so
// the caller sees a 500, not a bogus rejection. If the post-verify delete
// fails, the spent code stays live until TTL eviction and re-submitting it
// re-runs the idempotent MarkVerified.
func (s *service) VerifyOTP(ctx context.Context, role domain.Role, req domain.VerifyOTPRequest) error {
	if _, err := s.accounts.Get(ctx, req.Email, role); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return errInvalidCode
	}
	ch, err := s.challenges.Get(ctx, req.Email, role)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return errInvalidCode
	}
	if ch.Code != req.OTP {
		return errInvalidCode
	}
	if ch.ExpiresAt <= time.Now().Unix() {
		return errInvalidCode
	}

	if err := s.accounts.MarkVerified(ctx, req.Email, role); err != nil {
		return err
	}
	// The challenge is spent. If the delete fails the table's TTL will
	// evict it eventually, so log and move on.
	if err := s.challenges.Delete(ctx, req.Email, role); err != nil {
		slog.Warn("failed to delete used challenge", "email", req.Email, "role", role, "err", err)
	}
	return nil
}

// Login checks credentials and returns the account profile. Unknown accounts
// and wrong passwords are indistinguishable; the verified check runs only
// after the password is proven, so unverified status is never revealed to a
// caller who doesn't hold the password.
func (s *service) Login(ctx context.Context, role domain.Role, req domain.LoginRequest) (*domain.Profile, error) {
	a, err := s.accounts.Get(ctx, req.Email, role)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !a.Verified {
		return nil, fmt.Errorf("account not verified: %w", domain.ErrForbidden)
	}
	return &domain.Profile{Name: a.Name, Email: a.Email}, nil
}

func verificationEmail(name, code string) (subject, body string) {
	subject = "Verify your email"
	body = fmt.Sprintf(
		"<html><body><p>Hi %s,</p><p>Your verification code is <b>%s</b>. It expires in %d minutes.</p></body></html>",
		html.EscapeString(name), code, int(otpTTL.Minutes()))
	return subject, body
}
