package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belajar-todo/internal/models"
)

func newCategoryRepo(t *testing.T) (*CategoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestCategoryRepositoryCreate(t *testing.T) {
	repo, mock := newCategoryRepo(t)

	mock.ExpectQuery(`INSERT INTO categories .* RETURNING id, created_at`).
		WithArgs(1, "work", "#007bff", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, fixedNow))

	category := &models.Category{UserID: 1, Name: "work", Color: models.DefaultCategoryColor}
	require.NoError(t, repo.Create(context.Background(), category))
	assert.Equal(t, 5, category.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryCreateDuplicate(t *testing.T) {
	repo, mock := newCategoryRepo(t)

	mock.ExpectQuery(`INSERT INTO categories`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "categories_user_id_name_key"})

	err := repo.Create(context.Background(), &models.Category{UserID: 1, Name: "work", Color: "#fff"})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryListByUser(t *testing.T) {
	repo, mock := newCategoryRepo(t)

	mock.ExpectQuery(`SELECT c.id, c.user_id, c.name, c.color, c.created_at, COUNT\(tc.todo_id\) AS todo_count FROM categories c LEFT JOIN todo_categories tc ON tc.category_id = c.id WHERE c.user_id = \$1 GROUP BY c.id ORDER BY c.name ASC`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "color", "created_at", "todo_count"}).
			AddRow(2, 1, "home", "#00ff00", fixedNow, 0).
			AddRow(1, 1, "work", "#007bff", fixedNow, 3))

	categories, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "home", categories[0].Name)
	assert.Equal(t, 3, categories[1].TodoCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepositoryDelete(t *testing.T) {
	repo, mock := newCategoryRepo(t)

	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1 AND user_id = \$2`).
		WithArgs(5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
