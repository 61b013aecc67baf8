package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. DeletedAt drives soft deletion: Bun excludes
// rows with a non null deleted_at from every normal query, so a soft
// deleted account is invisible to lookups, authentication, and listings
// until restored.
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName        string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName         string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash     string     `bun:"password_hash,notnull" json:"-"`
	Admin            bool       `bun:"is_admin" json:"is_admin,omitempty"`
	LastConnectionAt *time.Time `bun:"last_connection_at,nullzero" json:"last_connection_at,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt        *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the account is soft deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Identity adapts the user into the Identity consumed by TokenService.
func (u *User) Identity() Identity {
	return userIdentity{
		id:    u.ID.String(),
		email: u.Email,
		admin: u.Admin,
	}
}

type userIdentity struct {
	id    string
	email string
	admin bool
}

func (a userIdentity) ID() string    { return a.id }
func (a userIdentity) Email() string { return a.email }
func (a userIdentity) IsAdmin() bool { return a.admin }

var _ Identity = userIdentity{}

// ProfileView selects which profile fields a read exposes.
type ProfileView string

const (
	// ProfileReduced suppresses contact and activity fields; the default
	// for reads on behalf of other users.
	ProfileReduced ProfileView = "reduced"
	// ProfileFull exposes every profile field; for reads on behalf of the
	// account owner or an admin.
	ProfileFull ProfileView = "full"
)

// Profile is the read model returned by lookups and listings. Reduced
// views leave Email and LastConnectionAt empty.
type Profile struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email,omitempty"`
	LastConnectionAt *time.Time `json:"last_connection_at,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// Profile projects the user into the requested view.
func (u *User) Profile(view ProfileView) *Profile {
	p := &Profile{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}

	if view == ProfileFull {
		p.Email = u.Email
		p.LastConnectionAt = u.LastConnectionAt
	}

	return p
}
