package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"belajar-todo/internal/models"
	"belajar-todo/internal/repository"
	"belajar-todo/pkg/logger"
)

// Batas panjang mengikuti ukuran kolom di db_setup.go.
const (
	MaxTitleLength        = 255
	MaxCategoryNameLength = 100
	MaxColorLength        = 20
)

// TodoInput is the unvalidated payload for creating a todo.
type TodoInput struct {
	Title       string
	Description *string
	Priority    string
	DueDate     *string
	CategoryIDs []int
}

// TodoService validates input and runs owner-scoped todo and category operations.
type TodoService struct {
	todos      TodoStore
	categories CategoryStore
	now        func() time.Time
}

func NewTodoService(todos TodoStore, categories CategoryStore) *TodoService {
	return &TodoService{todos: todos, categories: categories, now: time.Now}
}

// WithClock replaces the clock used for overdue checks.
func (s *TodoService) WithClock(now func() time.Time) *TodoService {
	s.now = now
	return s
}

func (s *TodoService) CreateTodo(ctx context.Context, userID int, in TodoInput) (*models.Todo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, validationf("title must be at most %d characters", MaxTitleLength)
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		priority = models.Priority(in.Priority)
		if !priority.Valid() {
			return nil, validationf("priority must be low, medium or high")
		}
	}

	var due *time.Time
	if in.DueDate != nil && *in.DueDate != "" {
		parsed, err := ParseDueDate(*in.DueDate)
		if err != nil {
			return nil, err
		}
		due = &parsed
	}

	for _, id := range in.CategoryIDs {
		if id <= 0 {
			return nil, validationf("invalid category id %d", id)
		}
	}

	todo, err := s.todos.Create(ctx, models.NewTodo{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     due,
		CategoryIDs: in.CategoryIDs,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, validationf("one or more categories do not exist")
		}
		return nil, err
	}
	logger.AuditLogger.Info("Todo created", zap.Int("user_id", userID), zap.Int("todo_id", todo.ID))
	return todo, nil
}

func (s *TodoService) ListTodos(ctx context.Context, userID int, filter models.TodoFilter) ([]models.Todo, error) {
	return s.todos.List(ctx, userID, filter)
}

func (s *TodoService) GetTodo(ctx context.Context, id, userID int) (*models.Todo, error) {
	todo, err := s.todos.Get(ctx, id, userID)
	return todo, todoNotFound(err)
}

// UpdateTodo applies the fields present in patch. An empty patch still
// refreshes updated_at and returns the current record.
func (s *TodoService) UpdateTodo(ctx context.Context, id, userID int, patch models.TodoPatch) (*models.Todo, error) {
	changes, err := validatePatch(patch)
	if err != nil {
		return nil, err
	}
	todo, err := s.todos.Update(ctx, id, userID, changes)
	if err != nil {
		return nil, todoNotFound(err)
	}
	logger.AuditLogger.Info("Todo updated", zap.Int("user_id", userID), zap.Int("todo_id", id))
	return todo, nil
}

func (s *TodoService) ToggleTodo(ctx context.Context, id, userID int) (*models.Todo, error) {
	todo, err := s.todos.Toggle(ctx, id, userID)
	if err != nil {
		return nil, todoNotFound(err)
	}
	logger.AuditLogger.Info("Todo toggled", zap.Int("user_id", userID), zap.Int("todo_id", id), zap.Bool("completed", todo.Completed))
	return todo, nil
}

// DeleteTodo reports whether a row was removed.
func (s *TodoService) DeleteTodo(ctx context.Context, id, userID int) (bool, error) {
	deleted, err := s.todos.Delete(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		logger.AuditLogger.Info("Todo deleted", zap.Int("user_id", userID), zap.Int("todo_id", id))
	}
	return deleted, nil
}

func (s *TodoService) CreateCategory(ctx context.Context, userID int, name, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return nil, validationf("name must be at most %d characters", MaxCategoryNameLength)
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = models.DefaultCategoryColor
	}
	if utf8.RuneCountInString(color) > MaxColorLength {
		return nil, validationf("color must be at most %d characters", MaxColorLength)
	}

	category := &models.Category{UserID: userID, Name: name, Color: color}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictf("category name already exists")
		}
		return nil, err
	}
	logger.AuditLogger.Info("Category created", zap.Int("user_id", userID), zap.Int("category_id", category.ID))
	return category, nil
}

func (s *TodoService) ListCategories(ctx context.Context, userID int) ([]models.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

func (s *TodoService) DeleteCategory(ctx context.Context, id, userID int) (bool, error) {
	deleted, err := s.categories.Delete(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		logger.AuditLogger.Info("Category deleted", zap.Int("user_id", userID), zap.Int("category_id", id))
	}
	return deleted, nil
}

// Stats is computed from the user's full todo set on every call.
func (s *TodoService) Stats(ctx context.Context, userID int) (models.Stats, error) {
	todos, err := s.todos.List(ctx, userID, models.TodoFilter{})
	if err != nil {
		return models.Stats{}, err
	}
	return models.ComputeStats(todos, s.now()), nil
}

func validatePatch(patch models.TodoPatch) (models.TodoChanges, error) {
	var changes models.TodoChanges
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return changes, validationf("title must not be empty")
		}
		if utf8.RuneCountInString(title) > MaxTitleLength {
			return changes, validationf("title must be at most %d characters", MaxTitleLength)
		}
		changes.Title = &title
	}
	changes.Description = patch.Description
	changes.Completed = patch.Completed
	if patch.Priority != nil {
		p := models.Priority(*patch.Priority)
		if !p.Valid() {
			return changes, validationf("priority must be low, medium or high")
		}
		changes.Priority = &p
	}
	if patch.DueDate != nil {
		due := sql.NullTime{}
		if *patch.DueDate != "" {
			parsed, err := ParseDueDate(*patch.DueDate)
			if err != nil {
				return changes, err
			}
			due = sql.NullTime{Time: parsed, Valid: true}
		}
		changes.DueDate = &due
	}
	return changes, nil
}

func todoNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundf("todo not found")
	}
	return err
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDueDate accepts ISO-8601 timestamps with or without offset, and bare
// dates. Values without an offset are taken as UTC.
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validationf("due_date must be an ISO-8601 date")
}
