package service

import (
	"context"

	"belajar-todo/internal/models"
)

// UserStore is the credential store. Implementations return
// repository.ErrNotFound for missing users and repository.ErrDuplicate for
// username/email collisions.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int) (*models.User, error)
	FindByLogin(ctx context.Context, identifier string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

// TodoStore persists owner-scoped todos. A todo that exists but belongs to
// someone else is reported exactly like a missing one.
type TodoStore interface {
	Create(ctx context.Context, in models.NewTodo) (*models.Todo, error)
	Get(ctx context.Context, id, userID int) (*models.Todo, error)
	List(ctx context.Context, userID int, filter models.TodoFilter) ([]models.Todo, error)
	Update(ctx context.Context, id, userID int, changes models.TodoChanges) (*models.Todo, error)
	Toggle(ctx context.Context, id, userID int) (*models.Todo, error)
	Delete(ctx context.Context, id, userID int) (bool, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	ListByUser(ctx context.Context, userID int) ([]models.Category, error)
	Delete(ctx context.Context, id, userID int) (bool, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type TokenIssuer interface {
	Issue(userID int, username string) (string, error)
}
