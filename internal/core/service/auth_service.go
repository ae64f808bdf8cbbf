package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/core/domain"
	"github.com/clinicore/clinic-api/internal/core/ports"
)

const (
	DefaultInviteExpiry = 72 * time.Hour
	MinPasswordLength   = 8
)

// timingPassword is hashed once and verified against on unknown-email logins
// so both failure paths cost one bcrypt comparison.
const timingPassword = "clinic-api/login-timing"

// Config is built once at startup from process configuration.
type Config struct {
	InviteExpiry time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// AuthService implements signup, login, staff invitation and invitation
// acceptance.
type AuthService struct {
	store     ports.AuthStore
	hasher    ports.PasswordHasher
	signer    ports.TokenSigner
	tokens    ports.InvitationTokenGenerator
	publisher ports.InvitationPublisher
	validate  *validator.Validate
	cfg       Config
	log       zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires the core. publisher may be nil, in which case issued
// invitations are only returned to the caller.
func NewAuthService(
	store ports.AuthStore,
	hasher ports.PasswordHasher,
	signer ports.TokenSigner,
	tokens ports.InvitationTokenGenerator,
	publisher ports.InvitationPublisher,
	cfg Config,
	log zerolog.Logger,
) *AuthService {
	if cfg.InviteExpiry <= 0 {
		cfg.InviteExpiry = DefaultInviteExpiry
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		signer:    signer,
		tokens:    tokens,
		publisher: publisher,
		validate:  validator.New(),
		cfg:       cfg,
		log:       log,
	}
}

func (s *AuthService) now() time.Time {
	return s.cfg.Clock().UTC()
}

// Signup creates a clinic and its OWNER in one transaction and opens a
// session for the owner.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.OwnerEmail)
	clinicName := strings.TrimSpace(in.ClinicName)
	ownerName := strings.TrimSpace(in.OwnerName)

	if err := s.checkFields(
		field{"clinic_name", clinicName, "required"},
		field{"owner_email", email, "required,email"},
		field{"owner_name", ownerName, "required"},
		field{"password", in.Password, passwordRule},
	); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	clinic := &domain.Clinic{
		ID:        uuid.NewString(),
		Name:      clinicName,
		Timezone:  valueOr(strings.TrimSpace(in.Timezone), domain.DefaultTimezone),
		Locale:    valueOr(strings.TrimSpace(in.Locale), domain.DefaultLocale),
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &domain.User{
		ID:           uuid.NewString(),
		ClinicID:     clinic.ID,
		Email:        email,
		PasswordHash: hash,
		FullName:     ownerName,
		Role:         domain.RoleOwner,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithTx(ctx, func(tx ports.Repositories) error {
		if err := tx.Clinics().Create(ctx, clinic); err != nil {
			return err
		}
		return tx.Users().Create(ctx, owner)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			s.log.Info().Str("email", email).Msg("signup lost email race")
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.Info().
		Str("clinic_id", clinic.ID).
		Str("user_id", owner.ID).
		Msg("clinic created")

	return s.openSession(owner)
}

// Login verifies credentials. Unknown email and wrong password yield the same
// error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.burnComparison(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) || !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	s.log.Debug().Str("user_id", user.ID).Str("clinic_id", user.ClinicID).Msg("login succeeded")
	return s.openSession(user)
}

// InviteStaff issues a single-use invitation into the caller's clinic. Role
// gating of the caller happens at the route; this only binds the tenant.
func (s *AuthService) InviteStaff(ctx context.Context, in ports.InviteStaffInput) (*ports.InvitationResult, error) {
	if in.ClinicID == "" || in.CreatorID == "" {
		return nil, domain.ErrUnauthenticated
	}

	email := domain.NormalizeEmail(in.Email)
	if err := s.checkFields(field{"email", email, "required,email"}); err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil || !role.Invitable() {
		return nil, domain.ErrInvalidRole
	}

	clinic, err := s.store.Clinics().FindByID(ctx, in.ClinicID)
	if err != nil {
		if errors.Is(err, domain.ErrClinicNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("invite staff: %w", err)
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &domain.StaffInvitation{
		ID:        uuid.NewString(),
		ClinicID:  clinic.ID,
		Email:     email,
		Role:      role,
		TokenHash: s.tokens.Hash(token),
		CreatedBy: in.CreatorID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.InviteExpiry),
	}
	if err := s.store.Invitations().Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("invite staff: %w", err)
	}

	s.log.Info().
		Str("invitation_id", inv.ID).
		Str("clinic_id", inv.ClinicID).
		Str("role", string(inv.Role)).
		Str("created_by", inv.CreatedBy).
		Time("expires_at", inv.ExpiresAt).
		Msg("staff invitation issued")

	if s.publisher != nil {
		s.publisher.Publish(ports.InvitationIssued{
			InvitationID: inv.ID,
			ClinicID:     clinic.ID,
			ClinicName:   clinic.Name,
			Email:        inv.Email,
			Role:         string(inv.Role),
			Token:        token,
			ExpiresAt:    inv.ExpiresAt,
		})
	}

	return &ports.InvitationResult{
		InvitationID: inv.ID,
		Token:        token,
		ExpiresAt:    inv.ExpiresAt,
	}, nil
}

// AcceptInvitation consumes an invitation and registers the invitee. The
// conditional update on accepted_at and the user insert share a transaction,
// so concurrent acceptances of one token produce exactly one user.
func (s *AuthService) AcceptInvitation(ctx context.Context, in ports.AcceptInvitationInput) (*ports.AuthResult, error) {
	if in.Token == "" {
		return nil, domain.ErrInvalidToken
	}

	fullName := strings.TrimSpace(in.FullName)
	if err := s.checkFields(
		field{"full_name", fullName, "required"},
		field{"password", in.Password, passwordRule},
	); err != nil {
		return nil, err
	}

	inv, err := s.lookupInvitation(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := inv.Check(now); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	invitationID := inv.ID
	user := &domain.User{
		ID:           uuid.NewString(),
		ClinicID:     inv.ClinicID,
		Email:        inv.Email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         inv.Role,
		InvitationID: &invitationID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithTx(ctx, func(tx ports.Repositories) error {
		if err := tx.Invitations().MarkAccepted(ctx, inv.ID, now); err != nil {
			return err
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvitationAlreadyUsed):
			s.log.Info().Str("invitation_id", inv.ID).Msg("invitation accepted concurrently")
			return nil, domain.ErrInvitationAlreadyUsed
		case errors.Is(err, domain.ErrDuplicateEmail):
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("accept invitation: %w", err)
	}

	s.log.Info().
		Str("invitation_id", inv.ID).
		Str("clinic_id", user.ClinicID).
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("invitation accepted")

	return s.openSession(user)
}

// PreviewInvitation describes a still-usable invitation without consuming it.
func (s *AuthService) PreviewInvitation(ctx context.Context, token string) (*ports.InvitationPreview, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	inv, err := s.lookupInvitation(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := inv.Check(s.now()); err != nil {
		return nil, err
	}

	clinic, err := s.store.Clinics().FindByID(ctx, inv.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("preview invitation: %w", err)
	}

	return &ports.InvitationPreview{
		Email:      inv.Email,
		Role:       inv.Role,
		ClinicName: clinic.Name,
		ExpiresAt:  inv.ExpiresAt,
	}, nil
}

// Me resolves the stored user behind a verified principal.
func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	user, err := s.store.Users().FindByID(ctx, p.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("me: %w", err)
	}
	if user.ClinicID != p.ClinicID || !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

func (s *AuthService) lookupInvitation(ctx context.Context, token string) (*domain.StaffInvitation, error) {
	inv, err := s.store.Invitations().FindByTokenHash(ctx, s.tokens.Hash(token))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return inv, nil
}

// ensureEmailFree is a fast-path check; the unique constraint in the store
// remains the authority under concurrency.
func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.Users().FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrDuplicateEmail
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}

func (s *AuthService) openSession(user *domain.User) (*ports.AuthResult, error) {
	principal := domain.PrincipalFromUser(user)
	tok, err := s.signer.Sign(principal)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{
		AccessToken: tok.Token,
		ExpiresAt:   tok.ExpiresAt,
		User:        principal,
	}, nil
}

func (s *AuthService) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(timingPassword)
		if err != nil {
			s.log.Warn().Err(err).Msg("timing hash unavailable")
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(s.dummyHash, password)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
