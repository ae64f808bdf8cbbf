package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

type InvitationRepository struct {
	db dbtx
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.StaffInvitation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO staff_invitations (id, clinic_id, email, role, token_hash, created_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inv.ID, inv.ClinicID, inv.Email, string(inv.Role), inv.TokenHash, inv.CreatedBy, inv.CreatedAt, inv.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert invitation: %w", mapPostgresError(err))
	}
	return nil
}

func (r *InvitationRepository) FindByTokenHash(ctx context.Context, hash string) (*domain.StaffInvitation, error) {
	var (
		inv  domain.StaffInvitation
		role string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, clinic_id, email, role, token_hash, created_by, created_at, expires_at, accepted_at
		FROM staff_invitations WHERE token_hash = $1`, hash,
	).Scan(&inv.ID, &inv.ClinicID, &inv.Email, &role, &inv.TokenHash, &inv.CreatedBy,
		&inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("find invitation: %w", mapPostgresError(err))
	}
	inv.Role = domain.Role(role)
	return &inv, nil
}

// MarkAccepted consumes the invitation with a single conditional update.
// Under READ COMMITTED a concurrent writer blocks on the row lock and then
// re-evaluates accepted_at IS NULL, so at most one caller affects the row.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id string, acceptedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE staff_invitations
		SET accepted_at = $2
		WHERE id = $1 AND accepted_at IS NULL`,
		id, acceptedAt,
	)
	if err != nil {
		return fmt.Errorf("mark invitation accepted: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvitationAlreadyUsed
	}
	return nil
}
