package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"belajar-todo/internal/models"
)

// TodoRepository menyimpan todo dan relasinya ke kategori. Semua query
// dibatasi oleh user_id pemilik, sehingga todo milik user lain selalu
// terlihat sebagai ErrNotFound.
type TodoRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTodoRepository(db *sqlx.DB) *TodoRepository {
	return &TodoRepository{db: db, now: time.Now}
}

// todoSelect mengambil todo beserta nama kategorinya dalam satu query.
func todoSelect() sq.SelectBuilder {
	return psql.Select(
		"t.id", "t.user_id", "t.title", "t.description", "t.completed",
		"t.priority", "t.due_date", "t.created_at", "t.updated_at",
		"COALESCE(array_agg(c.name ORDER BY c.name) FILTER (WHERE c.name IS NOT NULL), '{}') AS categories",
	).
		From("todos t").
		LeftJoin("todo_categories tc ON tc.todo_id = t.id").
		LeftJoin("categories c ON c.id = tc.category_id").
		GroupBy("t.id")
}

// Create menyimpan todo dan link kategorinya dalam satu transaksi.
// Kategori yang tidak ada atau bukan milik user menghasilkan ErrInvalidReference
// dan tidak ada baris yang tersimpan.
func (r *TodoRepository) Create(ctx context.Context, in models.NewTodo) (*models.Todo, error) {
	categoryIDs := uniqueIDs(in.CategoryIDs)
	now := r.now().UTC()

	var created *models.Todo
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if len(categoryIDs) > 0 {
			if err := checkOwnedCategories(ctx, tx, in.UserID, categoryIDs); err != nil {
				return err
			}
		}

		query, args, err := psql.Insert("todos").
			Columns("user_id", "title", "description", "completed", "priority", "due_date", "created_at", "updated_at").
			Values(in.UserID, in.Title, in.Description, false, string(in.Priority), in.DueDate, now, now).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		var id int
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return fmt.Errorf("insert todo: %w", mapError(err))
		}

		for _, categoryID := range categoryIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO todo_categories (todo_id, category_id) VALUES ($1, $2)",
				id, categoryID,
			); err != nil {
				return fmt.Errorf("link todo %d to category %d: %w", id, categoryID, mapError(err))
			}
		}

		created, err = getTodo(ctx, tx, id, in.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get mengambil satu todo milik userID.
func (r *TodoRepository) Get(ctx context.Context, id, userID int) (*models.Todo, error) {
	return getTodo(ctx, r.db, id, userID)
}

// List mengembalikan todo milik userID, terbaru lebih dulu.
func (r *TodoRepository) List(ctx context.Context, userID int, filter models.TodoFilter) ([]models.Todo, error) {
	builder := todoSelect().Where(sq.Eq{"t.user_id": userID})
	if filter.Completed != nil {
		builder = builder.Where(sq.Eq{"t.completed": *filter.Completed})
	}
	if filter.CategoryID != nil {
		builder = builder.Where(
			"EXISTS (SELECT 1 FROM todo_categories f WHERE f.todo_id = t.id AND f.category_id = ?)",
			*filter.CategoryID,
		)
	}
	query, args, err := builder.OrderBy("t.created_at DESC", "t.id DESC").ToSql()
	if err != nil {
		return nil, err
	}

	todos := []models.Todo{}
	if err := sqlx.SelectContext(ctx, r.db, &todos, query, args...); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Update menerapkan field yang ada di changes dan selalu memperbarui updated_at,
// termasuk ketika changes kosong.
func (r *TodoRepository) Update(ctx context.Context, id, userID int, changes models.TodoChanges) (*models.Todo, error) {
	set := map[string]interface{}{"updated_at": r.now().UTC()}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Completed != nil {
		set["completed"] = *changes.Completed
	}
	if changes.Priority != nil {
		set["priority"] = string(*changes.Priority)
	}
	if changes.DueDate != nil {
		set["due_date"] = *changes.DueDate
	}
	return r.updateAndFetch(ctx, id, userID, psql.Update("todos").SetMap(set))
}

// Toggle membalik status completed dalam satu statement.
func (r *TodoRepository) Toggle(ctx context.Context, id, userID int) (*models.Todo, error) {
	builder := psql.Update("todos").
		Set("completed", sq.Expr("NOT completed")).
		Set("updated_at", r.now().UTC())
	return r.updateAndFetch(ctx, id, userID, builder)
}

// Delete menghapus todo; link kategori ikut terhapus lewat ON DELETE CASCADE.
func (r *TodoRepository) Delete(ctx context.Context, id, userID int) (bool, error) {
	query, args, err := psql.Delete("todos").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *TodoRepository) updateAndFetch(ctx context.Context, id, userID int, builder sq.UpdateBuilder) (*models.Todo, error) {
	query, args, err := builder.Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return nil, err
	}

	var updated *models.Todo
	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update todo: %w", mapError(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		updated, err = getTodo(ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func getTodo(ctx context.Context, q queryer, id, userID int) (*models.Todo, error) {
	query, args, err := todoSelect().
		Where(sq.Eq{"t.id": id, "t.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var todo models.Todo
	if err := sqlx.GetContext(ctx, q, &todo, query, args...); err != nil {
		return nil, mapError(err)
	}
	return &todo, nil
}

func checkOwnedCategories(ctx context.Context, q queryer, userID int, ids []int) error {
	query, args, err := psql.Select("COUNT(*)").
		From("categories").
		Where(sq.Eq{"user_id": userID}).
		Where("id = ANY(?)", pq.Array(ids)).
		ToSql()
	if err != nil {
		return err
	}
	var owned int
	if err := sqlx.GetContext(ctx, q, &owned, query, args...); err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	if owned != len(ids) {
		return fmt.Errorf("%w: unknown category id", ErrInvalidReference)
	}
	return nil
}

func uniqueIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
