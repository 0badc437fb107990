package http

import (
	"context"

	"github.com/campus-auth-api/internal/domain"
)

// AccountRepository is the minimal interface the router requires from an account store.
type AccountRepository interface {
	PutNew(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, email string, role domain.Role) (*domain.Account, error)
	MarkVerified(ctx context.Context, email string, role domain.Role) error
}

// ChallengeRepository is the minimal interface the router requires from a challenge store.
type ChallengeRepository interface {
	Put(ctx context.Context, c *domain.OTPChallenge) error
	Get(ctx context.Context, email string, role domain.Role) (*domain.OTPChallenge, error)
	Delete(ctx context.Context, email string, role domain.Role) error
}

// OutboxRepository is the minimal interface the router requires from the mail
// outbox. Signup only enqueues; draining the queue is the dispatcher's job and
// is wired separately in main.
type OutboxRepository interface {
	Enqueue(ctx context.Context, m *domain.OutboxMessage) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo   AccountRepository
	ChallengeRepo ChallengeRepository
	OutboxRepo    OutboxRepository
}
