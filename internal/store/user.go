package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jjudge-oj/roster/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// NewUserRepository builds a repository for the given driver ("postgres" or "sqlite").
func NewUserRepository(db *sql.DB, driver string) *UserRepository {
	return &UserRepository{db: db, dialect: dialectFor(driver), now: time.Now}
}

// WithClock replaces the clock used to stamp created_at.
func (r *UserRepository) WithClock(now func() time.Time) *UserRepository {
	r.now = now
	return r
}

// Insert stores a new user. CreatedAt is always taken from the repository clock.
func (r *UserRepository) Insert(ctx context.Context, in types.NewUser) (types.User, error) {
	createdAt := r.now().UTC()
	args := []any{
		nullString(in.Name),
		nullString(in.Email),
		nullString(in.PhotoURL),
		in.Status,
		createdAt,
	}

	var id int64
	if r.dialect.returning {
		if err := r.db.QueryRowContext(ctx, r.dialect.insertUser, args...).Scan(&id); err != nil {
			return types.User{}, &PersistenceError{Op: "insert", Err: err}
		}
	} else {
		result, err := r.db.ExecContext(ctx, r.dialect.insertUser, args...)
		if err != nil {
			return types.User{}, &PersistenceError{Op: "insert", Err: err}
		}
		id, err = result.LastInsertId()
		if err != nil {
			return types.User{}, &PersistenceError{Op: "insert", Err: err}
		}
	}

	user := types.User{
		ID:        id,
		PhotoURL:  in.PhotoURL,
		Status:    in.Status,
		CreatedAt: createdAt,
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	return user, nil
}

// ListAll returns every user, newest first.
func (r *UserRepository) ListAll(ctx context.Context) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.listUsers)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var photo sql.NullString
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&photo,
		&user.Status,
		&user.CreatedAt,
	); err != nil {
		return types.User{}, err
	}
	if photo.Valid {
		user.PhotoURL = &photo.String
	}
	return user, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
