package account

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// minPasswordLength applies everywhere a plaintext password enters the
// package. Enforced before any hashing work so oversized or undersized
// inputs never reach the key derivation.
const minPasswordLength = 8

// UserStore is the slice of the persistence layer the account lifecycle
// needs. Users satisfies it; tests provide mocks.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetActiveByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	ListActive(ctx context.Context) ([]*User, error)
}

// AccountManager drives the account lifecycle: registration, login,
// profile updates, deletion, restoration, and reads. It owns policy
// (password rules, terms acceptance, credential checks) and delegates
// persistence to a UserStore.
type AccountManager struct {
	store  UserStore
	hasher PasswordAuthenticator
	logger Logger
}

type AccountManagerOption func(*AccountManager)

// WithPasswordAuthenticator overrides the default Argon2 hasher.
func WithPasswordAuthenticator(hasher PasswordAuthenticator) AccountManagerOption {
	return func(m *AccountManager) {
		if hasher != nil {
			m.hasher = hasher
		}
	}
}

// WithManagerLogger overrides the default logger.
func WithManagerLogger(logger Logger) AccountManagerOption {
	return func(m *AccountManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func NewAccountManager(store UserStore, opts ...AccountManagerOption) *AccountManager {
	m := &AccountManager{
		store:  store,
		hasher: Argon2Hasher{},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// RegisterMessage is the registration payload.
type RegisterMessage struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	AcceptedTerms bool   `json:"has_accepted_terms"`
	// UseHashid derives the account ID deterministically from the email
	// instead of generating a random UUID.
	UseHashid bool `json:"-"`
}

// Validate will validate the payload
func (r RegisterMessage) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
	)
}

// Register creates a new active account. The password is checked against
// the length policy before it is hashed; terms must be accepted; a
// duplicate email surfaces as ErrEmailTaken.
func (m *AccountManager) Register(ctx context.Context, msg RegisterMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during registration")
	default:
	}

	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	if !msg.AcceptedTerms {
		return nil, ErrTermsNotAccepted
	}

	if len(msg.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := m.hasher.HashPassword(msg.Password)
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		Email:        msg.Email,
		PasswordHash: hash,
	}

	if msg.UseHashid {
		id, err := hashid.NewUUID(msg.Email)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive account id")
		}
		user.ID = id
	}

	created, err := m.store.Create(ctx, user)
	if err != nil {
		if IsConflict(err) {
			return nil, err
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account")
	}

	// the digest never travels back to the caller
	created.PasswordHash = ""

	return created, nil
}

// Login verifies the credentials against the active account holding the
// given email. Every failure mode collapses into ErrInvalidCredentials so
// callers cannot distinguish an unknown email from a bad password or a
// soft deleted account.
func (m *AccountManager) Login(ctx context.Context, email, password string) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during login")
	default:
	}

	if email == "" || len(password) < minPasswordLength {
		return nil, ErrInvalidCredentials
	}

	user, err := m.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) || IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if err := m.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	// best effort; a failed timestamp write must not fail the login
	if err := m.store.TrackSuccessfulLogin(ctx, user); err != nil {
		m.logger.Error("failed to track successful login: %v", err)
	}

	return user, nil
}

// UpdateMessage carries a partial profile update. Nil fields are left
// untouched. CurrentPassword is always required and must verify against
// the stored digest before any field changes.
type UpdateMessage struct {
	CurrentPassword string  `json:"current_password"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Email           *string `json:"email,omitempty"`
	Password        *string `json:"new_password,omitempty"`
}

// Validate will validate the payload
func (r UpdateMessage) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.FirstName, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
	)
}

// Update applies a partial update to an active account after re-verifying
// the current password. A new password must meet the length policy and
// differ from the current one.
func (m *AccountManager) Update(ctx context.Context, id uuid.UUID, msg UpdateMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account update")
	default:
	}

	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid update payload")
	}

	user, err := m.store.GetActiveByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) || IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if err := m.hasher.ComparePasswordAndHash(msg.CurrentPassword, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if msg.FirstName != nil {
		user.FirstName = *msg.FirstName
	}

	if msg.LastName != nil {
		user.LastName = *msg.LastName
	}

	if msg.Email != nil {
		user.Email = *msg.Email
	}

	if msg.Password != nil {
		if len(*msg.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}

		if *msg.Password == msg.CurrentPassword {
			return nil, ErrPasswordUnchanged
		}

		hash, err := m.hasher.HashPassword(*msg.Password)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	now := time.Now()
	user.UpdatedAt = &now

	updated, err := m.store.Update(ctx, user, repository.UpdateByID(id.String()))
	if err != nil {
		if IsConflict(err) {
			return nil, err
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account")
	}

	return updated, nil
}

// Delete removes an account. A soft delete marks the row and keeps the
// data; a hard delete removes the row permanently, soft deleted or not.
func (m *AccountManager) Delete(ctx context.Context, id uuid.UUID, hard bool) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account deletion")
	default:
	}

	var err error
	if hard {
		err = m.store.HardDelete(ctx, id)
	} else {
		err = m.store.SoftDelete(ctx, id)
	}

	if err != nil {
		if repository.IsRecordNotFound(err) || IsNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete account")
	}

	return nil
}

// Restore brings a soft deleted account back. Restoring an account that
// was never deleted succeeds without change.
func (m *AccountManager) Restore(ctx context.Context, id uuid.UUID) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account restore")
	default:
	}

	if err := m.store.Restore(ctx, id); err != nil {
		if repository.IsRecordNotFound(err) || IsNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to restore account")
	}

	return nil
}

// Find returns the profile of an active account, projected through the
// requested view.
func (m *AccountManager) Find(ctx context.Context, id uuid.UUID, view ProfileView) (*Profile, error) {
	user, err := m.store.GetActiveByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) || IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	return user.Profile(view), nil
}

// List returns the reduced profiles of every active account.
func (m *AccountManager) List(ctx context.Context) ([]*Profile, error) {
	users, err := m.store.ListActive(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list accounts")
	}

	profiles := make([]*Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.Profile(ProfileReduced))
	}

	return profiles, nil
}
