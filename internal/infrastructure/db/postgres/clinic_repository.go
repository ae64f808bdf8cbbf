package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

type ClinicRepository struct {
	db dbtx
}

func (r *ClinicRepository) Create(ctx context.Context, c *domain.Clinic) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO clinics (id, name, timezone, locale, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Timezone, c.Locale, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert clinic: %w", mapPostgresError(err))
	}
	return nil
}

func (r *ClinicRepository) FindByID(ctx context.Context, id string) (*domain.Clinic, error) {
	var c domain.Clinic
	err := r.db.QueryRow(ctx, `
		SELECT id, name, timezone, locale, created_at, updated_at
		FROM clinics WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Timezone, &c.Locale, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, domain.ErrClinicNotFound
		}
		return nil, fmt.Errorf("find clinic: %w", mapPostgresError(err))
	}
	return &c, nil
}
