package service

import (
	"context"
	"sync"
	"time"

	"github.com/clinicore/clinic-api/internal/core/domain"
	"github.com/clinicore/clinic-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory credential store. It enforces the same guarantees the real stores
// get from the database: a unique email, an atomic conditional update on
// accepted_at and all-or-nothing transactions.
// ---------------------------------------------------------------------------

type memStore struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	clinics     map[string]*domain.Clinic
	users       map[string]*domain.User
	invitations map[string]*domain.StaffInvitation

	findErr error // if set, FindByEmail returns this error
	userErr error // if set, Users().Create returns this error
}

func newMemStore() *memStore {
	return &memStore{
		clinics:     make(map[string]*domain.Clinic),
		users:       make(map[string]*domain.User),
		invitations: make(map[string]*domain.StaffInvitation),
	}
}

func (s *memStore) Clinics() ports.ClinicRepository         { return (&memRepos{s: s}).clinics() }
func (s *memStore) Users() ports.UserRepository             { return (&memRepos{s: s}).usersRepo() }
func (s *memStore) Invitations() ports.InvitationRepository { return (&memRepos{s: s}).invitesRepo() }
func (s *memStore) Ping(context.Context) error              { return nil }

func (s *memStore) WithTx(_ context.Context, fn func(tx ports.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{repos: &memRepos{s: s}}
	tx.repos.undo = &tx.undo
	if err := fn(tx); err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) clinicCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clinics)
}

func (s *memStore) invitation(id string) domain.StaffInvitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.invitations[id]
}

func (s *memStore) userByEmail(email string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone
		}
	}
	return nil
}

type memTx struct {
	repos *memRepos
	undo  []func()
}

func (t *memTx) Clinics() ports.ClinicRepository         { return t.repos.clinics() }
func (t *memTx) Users() ports.UserRepository             { return t.repos.usersRepo() }
func (t *memTx) Invitations() ports.InvitationRepository { return t.repos.invitesRepo() }

// memRepos carries the store and the transaction's undo log.
type memRepos struct {
	s    *memStore
	undo *[]func()
}

func (r *memRepos) record(fn func()) {
	if r.undo != nil {
		*r.undo = append(*r.undo, fn)
	}
}

// The three repository interfaces share method names, so memRepos hands out
// typed views.
func (r *memRepos) clinics() *memClinics         { return &memClinics{r} }
func (r *memRepos) usersRepo() *memUsers         { return &memUsers{r} }
func (r *memRepos) invitesRepo() *memInvitations { return &memInvitations{r} }

type memClinics struct{ *memRepos }
type memUsers struct{ *memRepos }
type memInvitations struct{ *memRepos }

func (c *memClinics) Create(_ context.Context, clinic *domain.Clinic) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	clone := *clinic
	c.s.clinics[clinic.ID] = &clone
	c.record(func() { delete(c.s.clinics, clinic.ID) })
	return nil
}

func (c *memClinics) FindByID(_ context.Context, id string) (*domain.Clinic, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	clinic, ok := c.s.clinics[id]
	if !ok {
		return nil, domain.ErrClinicNotFound
	}
	clone := *clinic
	return &clone, nil
}

func (u *memUsers) Create(_ context.Context, user *domain.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.userErr != nil {
		return u.s.userErr
	}
	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	clone := *user
	u.s.users[user.ID] = &clone
	u.record(func() { delete(u.s.users, user.ID) })
	return nil
}

func (u *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.findErr != nil {
		return nil, u.s.findErr
	}
	for _, existing := range u.s.users {
		if existing.Email == email {
			clone := *existing
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (u *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (i *memInvitations) Create(_ context.Context, inv *domain.StaffInvitation) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	clone := *inv
	i.s.invitations[inv.ID] = &clone
	return nil
}

func (i *memInvitations) FindByTokenHash(_ context.Context, hash string) (*domain.StaffInvitation, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	for _, inv := range i.s.invitations {
		if inv.TokenHash == hash {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, domain.ErrInvalidToken
}

func (i *memInvitations) MarkAccepted(_ context.Context, id string, at time.Time) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	inv, ok := i.s.invitations[id]
	if !ok || inv.AcceptedAt != nil {
		return domain.ErrInvitationAlreadyUsed
	}
	accepted := at
	inv.AcceptedAt = &accepted
	i.record(func() { inv.AcceptedAt = nil })
	return nil
}
