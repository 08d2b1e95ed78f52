// Package todofakes provides in-memory stores that behave like the Postgres
// repositories, for service and handler tests.
package todofakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"belajar-todo/internal/models"
	"belajar-todo/internal/repository"
)

// Store holds the shared state behind the three fakes so that deleting a
// category or todo updates the links the way ON DELETE CASCADE does.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	nextID     int
	users      map[int]models.User
	todos      map[int]models.Todo
	categories map[int]models.Category
	links      map[int]map[int]struct{} // todo id -> category ids
}

// NewStore constructs an empty Store. now may be nil.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:        now,
		users:      make(map[int]models.User),
		todos:      make(map[int]models.Todo),
		categories: make(map[int]models.Category),
		links:      make(map[int]map[int]struct{}),
	}
}

func (s *Store) Users() *UserStore { return &UserStore{s} }

func (s *Store) Todos() *TodoStore { return &TodoStore{s} }

func (s *Store) Categories() *CategoryStore { return &CategoryStore{s} }

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// UserCount is used by tests that race registrations.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type UserStore struct{ s *Store }

func (u *UserStore) Create(_ context.Context, user *models.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
	}
	now := s.now().UTC()
	user.ID = s.id()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (u *UserStore) FindByID(_ context.Context, id int) (*models.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (u *UserStore) FindByLogin(_ context.Context, identifier string) (*models.User, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.User
	for _, user := range s.users {
		if user.Username != identifier && user.Email != identifier {
			continue
		}
		if found == nil || user.ID < found.ID {
			match := user
			found = &match
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (u *UserStore) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type TodoStore struct{ s *Store }

func (t *TodoStore) Create(_ context.Context, in models.NewTodo) (*models.Todo, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	linked := make(map[int]struct{}, len(in.CategoryIDs))
	for _, id := range in.CategoryIDs {
		category, ok := s.categories[id]
		if !ok || category.UserID != in.UserID {
			return nil, fmt.Errorf("%w: unknown category id", repository.ErrInvalidReference)
		}
		linked[id] = struct{}{}
	}

	now := s.now().UTC()
	todo := models.Todo{
		ID:          s.id(),
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.todos[todo.ID] = todo
	s.links[todo.ID] = linked
	return s.hydrate(todo), nil
}

func (t *TodoStore) Get(_ context.Context, id, userID int) (*models.Todo, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	if !ok || todo.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return s.hydrate(todo), nil
}

func (t *TodoStore) List(_ context.Context, userID int, filter models.TodoFilter) ([]models.Todo, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Todo{}
	for _, todo := range s.todos {
		if todo.UserID != userID {
			continue
		}
		if filter.Completed != nil && todo.Completed != *filter.Completed {
			continue
		}
		if filter.CategoryID != nil {
			if _, ok := s.links[todo.ID][*filter.CategoryID]; !ok {
				continue
			}
		}
		out = append(out, *s.hydrate(todo))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *TodoStore) Update(_ context.Context, id, userID int, changes models.TodoChanges) (*models.Todo, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	if !ok || todo.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if changes.Title != nil {
		todo.Title = *changes.Title
	}
	if changes.Description != nil {
		desc := *changes.Description
		todo.Description = &desc
	}
	if changes.Completed != nil {
		todo.Completed = *changes.Completed
	}
	if changes.Priority != nil {
		todo.Priority = *changes.Priority
	}
	if changes.DueDate != nil {
		if changes.DueDate.Valid {
			due := changes.DueDate.Time
			todo.DueDate = &due
		} else {
			todo.DueDate = nil
		}
	}
	todo.UpdatedAt = s.now().UTC()
	s.todos[id] = todo
	return s.hydrate(todo), nil
}

func (t *TodoStore) Toggle(_ context.Context, id, userID int) (*models.Todo, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	if !ok || todo.UserID != userID {
		return nil, repository.ErrNotFound
	}
	todo.Completed = !todo.Completed
	todo.UpdatedAt = s.now().UTC()
	s.todos[id] = todo
	return s.hydrate(todo), nil
}

func (t *TodoStore) Delete(_ context.Context, id, userID int) (bool, error) {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	if !ok || todo.UserID != userID {
		return false, nil
	}
	delete(s.todos, id)
	delete(s.links, id)
	return true, nil
}

// hydrate fills Categories from the link table. Caller holds mu.
func (s *Store) hydrate(todo models.Todo) *models.Todo {
	names := pq.StringArray{}
	for categoryID := range s.links[todo.ID] {
		if category, ok := s.categories[categoryID]; ok {
			names = append(names, category.Name)
		}
	}
	sort.Strings(names)
	todo.Categories = names
	return &todo
}

type CategoryStore struct{ s *Store }

func (c *CategoryStore) Create(_ context.Context, category *models.Category) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.UserID == category.UserID && existing.Name == category.Name {
			return fmt.Errorf("insert category: %w", repository.ErrDuplicate)
		}
	}
	category.ID = s.id()
	category.CreatedAt = s.now().UTC()
	category.TodoCount = 0
	s.categories[category.ID] = *category
	return nil
}

func (c *CategoryStore) ListByUser(_ context.Context, userID int) ([]models.Category, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Category{}
	for _, category := range s.categories {
		if category.UserID != userID {
			continue
		}
		category.TodoCount = 0
		for _, linked := range s.links {
			if _, ok := linked[category.ID]; ok {
				category.TodoCount++
			}
		}
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *CategoryStore) Delete(_ context.Context, id, userID int) (bool, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[id]
	if !ok || category.UserID != userID {
		return false, nil
	}
	delete(s.categories, id)
	for _, linked := range s.links {
		delete(linked, id)
	}
	return true, nil
}
