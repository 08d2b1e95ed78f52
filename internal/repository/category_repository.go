package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"belajar-todo/internal/models"
)

// CategoryRepository manages user-scoped categories.
type CategoryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db, now: time.Now}
}

// Create inserts a category. A (user_id, name) pair that already exists yields ErrDuplicate.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query, args, err := psql.Insert("categories").
		Columns("user_id", "name", "color", "created_at").
		Values(category.UserID, category.Name, category.Color, r.now().UTC()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&category.ID, &category.CreatedAt); err != nil {
		return fmt.Errorf("insert category: %w", mapError(err))
	}
	return nil
}

// ListByUser returns the user's categories ordered by name, each with its todo count.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID int) ([]models.Category, error) {
	query, args, err := psql.Select(
		"c.id", "c.user_id", "c.name", "c.color", "c.created_at",
		"COUNT(tc.todo_id) AS todo_count",
	).
		From("categories c").
		LeftJoin("todo_categories tc ON tc.category_id = c.id").
		Where(sq.Eq{"c.user_id": userID}).
		GroupBy("c.id").
		OrderBy("c.name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	categories := []models.Category{}
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Delete removes the category; its todo links go with it through ON DELETE CASCADE.
func (r *CategoryRepository) Delete(ctx context.Context, id, userID int) (bool, error) {
	query, args, err := psql.Delete("categories").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
