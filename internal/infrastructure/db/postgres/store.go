package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicore/clinic-api/internal/core/ports"
)

// dbtx is the query surface shared by the pool and an open transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// poolIface is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type poolIface interface {
	dbtx
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store is the Postgres implementation of ports.AuthStore.
type Store struct {
	pool poolIface
	repositories
}

var _ ports.AuthStore = (*Store)(nil)

func NewStore(pool poolIface) *Store {
	return &Store{pool: pool, repositories: repositories{db: pool}}
}

// WithTx runs fn inside one READ COMMITTED transaction. Any error from fn
// rolls the transaction back and is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", mapPostgresError(err))
	}

	if err := fn(repositories{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapPostgresError(err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// repositories binds the three repositories to one dbtx.
type repositories struct {
	db dbtx
}

func (r repositories) Clinics() ports.ClinicRepository         { return &ClinicRepository{db: r.db} }
func (r repositories) Users() ports.UserRepository             { return &UserRepository{db: r.db} }
func (r repositories) Invitations() ports.InvitationRepository { return &InvitationRepository{db: r.db} }
