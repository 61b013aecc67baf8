package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var restoreUserSQL = `UPDATE "users" AS "usr"
SET
	"deleted_at" = NULL,
	"updated_at" = ?
WHERE
	"usr"."id" = ?;`

var trackLoginSQL = `UPDATE "users" AS "usr"
SET
	"last_connection_at" = ?
WHERE
	("usr"."id" = ?)
	AND "usr"."deleted_at" IS NULL;`

// Users is the persistence contract for accounts. Every read excludes soft
// deleted rows unless the method name says otherwise. The store owns email
// uniqueness; callers react to the reported conflict instead of
// pre-checking existence.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetActiveByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetActiveByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDIncludingDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	SoftDelete(ctx context.Context, id uuid.UUID) error
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	HardDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	RestoreTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	ListActive(ctx context.Context) ([]*User, error)
	ListActiveTx(ctx context.Context, tx bun.IDB) ([]*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetActiveByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetActiveByIDTx(ctx, a.db, id)
}

func (a *users) GetActiveByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDIncludingDeletedTx(ctx, a.db, id)
}

func (a *users) GetByIDIncludingDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		WhereAllWithDeleted().
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (a *users) Update(ctx context.Context, record *User, criteria ...repository.UpdateCriteria) (*User, error) {
	return a.UpdateTx(ctx, a.db, record, criteria...)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.UpdateCriteria) (*User, error) {
	updated, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return updated, nil
}

func (a *users) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return a.SoftDeleteTx(ctx, a.db, id)
}

func (a *users) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	// the model's soft_delete tag turns this into an UPDATE setting
	// deleted_at; already deleted rows are excluded and count as missing
	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	return requireAffectedRow(res, id)
}

func (a *users) HardDelete(ctx context.Context, id uuid.UUID) error {
	return a.HardDeleteTx(ctx, a.db, id)
}

func (a *users) HardDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		WhereAllWithDeleted().
		ForceDelete().
		Exec(ctx)
	if err != nil {
		return err
	}

	return requireAffectedRow(res, id)
}

func (a *users) Restore(ctx context.Context, id uuid.UUID) error {
	return a.RestoreTx(ctx, a.db, id)
}

func (a *users) RestoreTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	// NOTE: raw SQL so the soft delete filter does not hide the row we are
	// trying to bring back. Restoring an active row is a harmless no-op
	// update, so restore stays idempotent.
	res, err := tx.NewRaw(restoreUserSQL, time.Now(), id.String()).Exec(ctx)
	if err != nil {
		return err
	}

	return requireAffectedRow(res, id)
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	lastConnection := time.Now()
	_, err := tx.NewRaw(trackLoginSQL, lastConnection, user.ID.String()).Exec(ctx)
	if err == nil {
		user.LastConnectionAt = &lastConnection
	}
	return err
}

func (a *users) ListActive(ctx context.Context) ([]*User, error) {
	return a.ListActiveTx(ctx, a.db)
}

func (a *users) ListActiveTx(ctx context.Context, tx bun.IDB) ([]*User, error) {
	records := []*User{}
	err := tx.NewSelect().
		Model(&records).
		Column("id", "first_name", "last_name", "created_at").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// isUniqueViolation reports whether err originated in a unique constraint
// rejection. Drivers the repository mapper recognizes come back with the
// duplicate category; anything else is wrapped in a generic database error
// whose message hides the cause, so the chain is walked down to the
// driver's own text.
func isUniqueViolation(err error) bool {
	if repository.IsDuplicatedKey(err) {
		return true
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "duplicate key value violates unique constraint") ||
			strings.Contains(msg, "Duplicate entry") {
			return true
		}
	}

	return false
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func requireAffectedRow(res interface{ RowsAffected() (int64, error) }, id uuid.UUID) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}
