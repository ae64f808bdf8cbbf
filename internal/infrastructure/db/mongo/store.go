package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinicore/clinic-api/internal/core/ports"
)

const (
	clinicsCollection     = "clinics"
	usersCollection       = "users"
	invitationsCollection = "staff_invitations"
)

// Store is the MongoDB implementation of ports.AuthStore. Transactions need
// a replica set or sharded cluster.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	repositories
}

var _ ports.AuthStore = (*Store)(nil)

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db, repositories: repositories{db: db}}
}

// WithTx runs fn inside a session transaction. The driver may re-run fn on
// transient transaction errors.
func (s *Store) WithTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(repositories{db: s.db, sc: sc})
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the unique indexes the auth flows rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usersEmailIndex),
		},
		{
			Keys:    bson.D{{Key: "invitation_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "clinic_id", Value: 1}}},
	}
	if _, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	invitations := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "clinic_id", Value: 1}}},
	}
	if _, err := s.db.Collection(invitationsCollection).Indexes().CreateMany(ctx, invitations); err != nil {
		return fmt.Errorf("staff_invitations indexes: %w", err)
	}
	return nil
}

// repositories binds the three repositories to a database and, inside a
// transaction, to its session context.
type repositories struct {
	db *mongo.Database
	sc mongo.SessionContext
}

func (r repositories) Clinics() ports.ClinicRepository {
	return &ClinicRepository{col: r.db.Collection(clinicsCollection), sc: r.sc}
}

func (r repositories) Users() ports.UserRepository {
	return &UserRepository{col: r.db.Collection(usersCollection), sc: r.sc}
}

func (r repositories) Invitations() ports.InvitationRepository {
	return &InvitationRepository{col: r.db.Collection(invitationsCollection), sc: r.sc}
}

// opCtx returns the session context when bound to a transaction so the
// operation joins it.
func opCtx(ctx context.Context, sc mongo.SessionContext) context.Context {
	if sc != nil {
		return sc
	}
	return ctx
}
