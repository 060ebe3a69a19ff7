package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/identity-service/internal/domain"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// UserStore defines persistence access for user accounts. Lookups return
// ErrNotFound on a miss. Save inserts when the user has no ID yet and updates
// otherwise; it returns ErrEmailConflict when the email belongs to another row.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindCredentialProjection(ctx context.Context, email string) (*domain.CredentialProjection, error)
	FindUserView(ctx context.Context, email string) (*domain.UserView, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db *sql.DB) UserStore {
	return &userRepository{db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, name, surname, password_hash, role, created_at, updated_at
        FROM users WHERE email=$1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, name, surname, password_hash, role, created_at, updated_at
        FROM users WHERE id=$1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) FindCredentialProjection(ctx context.Context, email string) (*domain.CredentialProjection, error) {
	const query = `SELECT email, password_hash, role FROM users WHERE email=$1`

	var creds domain.CredentialProjection
	if err := r.db.QueryRowContext(ctx, query, email).Scan(
		&creds.Email,
		&creds.PasswordHash,
		&creds.Role,
	); err != nil {
		return nil, translate(err)
	}
	return &creds, nil
}

func (r *userRepository) FindUserView(ctx context.Context, email string) (*domain.UserView, error) {
	const query = `SELECT id, email, name, surname, role FROM users WHERE email=$1`

	var view domain.UserView
	if err := r.db.QueryRowContext(ctx, query, email).Scan(
		&view.ID,
		&view.Email,
		&view.Name,
		&view.Surname,
		&view.Role,
	); err != nil {
		return nil, translate(err)
	}
	return &view, nil
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		return r.create(ctx, user)
	}
	return r.update(ctx, user)
}

func (r *userRepository) create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, surname, password_hash, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	id := uuid.NewString()
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRowContext(ctx, query,
		id,
		user.Email,
		user.Name,
		user.Surname,
		user.PasswordHash,
		string(user.Role),
	).Scan(&createdAt, &updatedAt); err != nil {
		return translate(err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return nil
}

func (r *userRepository) update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, name=$2, surname=$3, password_hash=$4, role=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	if err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Name,
		user.Surname,
		user.PasswordHash,
		string(user.Role),
		user.ID,
	).Scan(&user.UpdatedAt); err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Surname,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrEmailConflict
		case invalidTextRepresentation:
			// malformed uuid in a lookup
			return ErrNotFound
		}
	}
	return err
}
