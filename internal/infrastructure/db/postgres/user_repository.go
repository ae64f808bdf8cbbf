package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

const userColumns = `id, clinic_id, email, password_hash, full_name, role, invitation_id, is_active, created_at, updated_at`

type UserRepository struct {
	db dbtx
}

// Create inserts u. A concurrent insert of the same email surfaces as
// domain.ErrDuplicateEmail through the users_email_key constraint.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.ClinicID, u.Email, u.PasswordHash, u.FullName, string(u.Role),
		u.InvitationID, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		err = mapPostgresError(err)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.ClinicID, &u.Email, &u.PasswordHash, &u.FullName, &role,
		&u.InvitationID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", mapPostgresError(err))
	}
	u.Role = domain.Role(role)
	return &u, nil
}
