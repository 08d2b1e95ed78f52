package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"belajar-todo/internal/models"
)

var userColumns = []string{"id", "username", "email", "password", "created_at", "updated_at"}

// UserRepository menyimpan identitas user di tabel users.
type UserRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// Create menyimpan user baru dan mengisi ID serta timestamp-nya.
// Username atau email yang sudah dipakai menghasilkan ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := r.now().UTC()
	query, args, err := psql.Insert("users").
		Columns("username", "email", "password", "created_at", "updated_at").
		Values(user.Username, user.Email, user.PasswordHash, now, now).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return err
	}
	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

// FindByLogin mencari user dengan username atau email sama dengan identifier.
func (r *UserRepository) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	return r.findOne(ctx, sq.Or{sq.Eq{"username": identifier}, sq.Eq{"email": identifier}})
}

// ExistsByUsernameOrEmail dipakai sebagai pre-check sebelum registrasi.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("users").
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Sqlizer) (*models.User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(where).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}
