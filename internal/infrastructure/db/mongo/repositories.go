package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinicore/clinic-api/internal/core/domain"
)

const usersEmailIndex = "users_email_key"

// ── Documents ────────────────────────────────────────────────────────────────

type clinicDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Timezone  string    `bson:"timezone"`
	Locale    string    `bson:"locale"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	ClinicID     string    `bson:"clinic_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	FullName     string    `bson:"full_name"`
	Role         string    `bson:"role"`
	InvitationID *string   `bson:"invitation_id,omitempty"`
	IsActive     bool      `bson:"is_active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// accepted_at is always written, as null while unused, so the conditional
// update can filter on it.
type invitationDoc struct {
	ID         string     `bson:"_id"`
	ClinicID   string     `bson:"clinic_id"`
	Email      string     `bson:"email"`
	Role       string     `bson:"role"`
	TokenHash  string     `bson:"token_hash"`
	CreatedBy  string     `bson:"created_by"`
	CreatedAt  time.Time  `bson:"created_at"`
	ExpiresAt  time.Time  `bson:"expires_at"`
	AcceptedAt *time.Time `bson:"accepted_at"`
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		ClinicID:     d.ClinicID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Role:         domain.Role(d.Role),
		InvitationID: d.InvitationID,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (d invitationDoc) toDomain() *domain.StaffInvitation {
	inv := &domain.StaffInvitation{
		ID:        d.ID,
		ClinicID:  d.ClinicID,
		Email:     d.Email,
		Role:      domain.Role(d.Role),
		TokenHash: d.TokenHash,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
	}
	if d.AcceptedAt != nil {
		at := d.AcceptedAt.UTC()
		inv.AcceptedAt = &at
	}
	return inv
}

// ── Clinics ──────────────────────────────────────────────────────────────────

type ClinicRepository struct {
	col *mongo.Collection
	sc  mongo.SessionContext
}

func (r *ClinicRepository) Create(ctx context.Context, c *domain.Clinic) error {
	_, err := r.col.InsertOne(opCtx(ctx, r.sc), clinicDoc{
		ID:        c.ID,
		Name:      c.Name,
		Timezone:  c.Timezone,
		Locale:    c.Locale,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert clinic: %w", err)
	}
	return nil
}

func (r *ClinicRepository) FindByID(ctx context.Context, id string) (*domain.Clinic, error) {
	var d clinicDoc
	if err := r.col.FindOne(opCtx(ctx, r.sc), bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClinicNotFound
		}
		return nil, fmt.Errorf("find clinic: %w", err)
	}
	return &domain.Clinic{
		ID:        d.ID,
		Name:      d.Name,
		Timezone:  d.Timezone,
		Locale:    d.Locale,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

// ── Users ────────────────────────────────────────────────────────────────────

type UserRepository struct {
	col *mongo.Collection
	sc  mongo.SessionContext
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.col.InsertOne(opCtx(ctx, r.sc), userDoc{
		ID:           u.ID,
		ClinicID:     u.ClinicID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Role:         string(u.Role),
		InvitationID: u.InvitationID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	if err != nil {
		if isEmailConflict(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var d userDoc
	if err := r.col.FindOne(opCtx(ctx, r.sc), filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return d.toDomain(), nil
}

// isEmailConflict reports a duplicate key on the email index. Other unique
// indexes on users are not an email conflict.
func isEmailConflict(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 && strings.Contains(e.Message, usersEmailIndex) {
				return true
			}
		}
		return false
	}
	return mongo.IsDuplicateKeyError(err)
}

// ── Invitations ──────────────────────────────────────────────────────────────

type InvitationRepository struct {
	col *mongo.Collection
	sc  mongo.SessionContext
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.StaffInvitation) error {
	_, err := r.col.InsertOne(opCtx(ctx, r.sc), invitationDoc{
		ID:        inv.ID,
		ClinicID:  inv.ClinicID,
		Email:     inv.Email,
		Role:      string(inv.Role),
		TokenHash: inv.TokenHash,
		CreatedBy: inv.CreatedBy,
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) FindByTokenHash(ctx context.Context, hash string) (*domain.StaffInvitation, error) {
	var d invitationDoc
	if err := r.col.FindOne(opCtx(ctx, r.sc), bson.M{"token_hash": hash}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return d.toDomain(), nil
}

// MarkAccepted is a single conditional UpdateOne on accepted_at being null.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id string, acceptedAt time.Time) error {
	res, err := r.col.UpdateOne(opCtx(ctx, r.sc),
		bson.M{"_id": id, "accepted_at": nil},
		bson.M{"$set": bson.M{"accepted_at": acceptedAt}},
	)
	if err != nil {
		return fmt.Errorf("mark invitation accepted: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvitationAlreadyUsed
	}
	return nil
}
