package ports

import (
	"context"
	"time"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

// ClinicRepository persists tenant roots.
type ClinicRepository interface {
	Create(ctx context.Context, clinic *domain.Clinic) error
	FindByID(ctx context.Context, id string) (*domain.Clinic, error)
}

// UserRepository persists clinic staff. Create must return
// domain.ErrDuplicateEmail when the store's unique constraint on email rejects
// the row, including when a concurrent writer won the race.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// InvitationRepository is the invitation registry.
type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.StaffInvitation) error
	// FindByTokenHash returns domain.ErrInvalidToken when nothing matches.
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.StaffInvitation, error)
	// MarkAccepted sets accepted_at only if it is still null, as a single
	// conditional update. It returns domain.ErrInvitationAlreadyUsed when no
	// unused row matched.
	MarkAccepted(ctx context.Context, id string, acceptedAt time.Time) error
}

// Repositories groups the repositories that participate in one unit of work.
type Repositories interface {
	Clinics() ClinicRepository
	Users() UserRepository
	Invitations() InvitationRepository
}

// AuthStore is the credential store. WithTx runs fn inside a transaction:
// the transaction commits when fn returns nil and rolls back otherwise.
type AuthStore interface {
	Repositories
	WithTx(ctx context.Context, fn func(tx Repositories) error) error
	Ping(ctx context.Context) error
}
