//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belajar-todo/internal/models"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=todo",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=todo_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start postgres: %v", err)
	}
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("postgres://todo:secret@%s/todo_test?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return err
		}
		testDB = db
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %v", err)
	}

	if err := CreateTableIfNotExists(context.Background(), testDB); err != nil {
		log.Fatalf("Could not create tables: %v", err)
	}

	code := m.Run()

	_ = DeleteAllTable(context.Background(), testDB)
	testDB.Close()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge resource: %v", err)
	}
	os.Exit(code)
}

func createUser(t *testing.T, name string) *models.User {
	t.Helper()
	unique := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	user := &models.User{Username: unique, Email: unique + "@example.com", PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(testDB).Create(context.Background(), user))
	return user
}

func TestIntegrationUserUniqueness(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(testDB)
	alice := createUser(t, "alice")

	err := users.Create(ctx, &models.User{Username: alice.Username, Email: "other_" + alice.Email, PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = users.Create(ctx, &models.User{Username: "other_" + alice.Username, Email: alice.Email, PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := users.FindByLogin(ctx, alice.Email)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	exists, err := users.ExistsByUsernameOrEmail(ctx, alice.Username, "nobody@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIntegrationCategoryUniquePerOwner(t *testing.T) {
	ctx := context.Background()
	categories := NewCategoryRepository(testDB)
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")

	require.NoError(t, categories.Create(ctx, &models.Category{UserID: alice.ID, Name: "work", Color: models.DefaultCategoryColor}))
	err := categories.Create(ctx, &models.Category{UserID: alice.ID, Name: "work", Color: models.DefaultCategoryColor})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, categories.Create(ctx, &models.Category{UserID: bob.ID, Name: "work", Color: models.DefaultCategoryColor}))
}

func TestIntegrationTodoLifecycle(t *testing.T) {
	ctx := context.Background()
	todos := NewTodoRepository(testDB)
	categories := NewCategoryRepository(testDB)
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")

	work := &models.Category{UserID: alice.ID, Name: "work", Color: models.DefaultCategoryColor}
	home := &models.Category{UserID: alice.ID, Name: "home", Color: "#00ff00"}
	require.NoError(t, categories.Create(ctx, work))
	require.NoError(t, categories.Create(ctx, home))
	bobs := &models.Category{UserID: bob.ID, Name: "secret", Color: models.DefaultCategoryColor}
	require.NoError(t, categories.Create(ctx, bobs))

	due := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	first, err := todos.Create(ctx, models.NewTodo{
		UserID: alice.ID, Title: "buy milk", Priority: models.PriorityHigh,
		DueDate: &due, CategoryIDs: []int{work.ID, home.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "work"}, []string(first.Categories))
	assert.False(t, first.Completed)
	require.NotNil(t, first.DueDate)
	assert.True(t, first.DueDate.Equal(due))

	_, err = todos.Create(ctx, models.NewTodo{
		UserID: alice.ID, Title: "steal", Priority: models.PriorityLow, CategoryIDs: []int{bobs.ID},
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	second, err := todos.Create(ctx, models.NewTodo{UserID: alice.ID, Title: "write report", Priority: models.PriorityMedium})
	require.NoError(t, err)

	all, err := todos.List(ctx, alice.ID, models.TodoFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	workID := work.ID
	inWork, err := todos.List(ctx, alice.ID, models.TodoFilter{CategoryID: &workID})
	require.NoError(t, err)
	require.Len(t, inWork, 1)
	assert.Equal(t, []string{"home", "work"}, []string(inWork[0].Categories))

	bobView, err := todos.List(ctx, bob.ID, models.TodoFilter{})
	require.NoError(t, err)
	assert.Empty(t, bobView)

	_, err = todos.Toggle(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = todos.Update(ctx, first.ID, bob.ID, models.TodoChanges{})
	assert.ErrorIs(t, err, ErrNotFound)
	deleted, err := todos.Delete(ctx, first.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	toggled, err := todos.Toggle(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	done := false
	title := "buy oat milk"
	cleared := sql.NullTime{}
	updated, err := todos.Update(ctx, first.ID, alice.ID, models.TodoChanges{Title: &title, Completed: &done, DueDate: &cleared})
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", updated.Title)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.DueDate)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	completed := false
	pending, err := todos.List(ctx, alice.ID, models.TodoFilter{Completed: &completed})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	deleted, err = categories.Delete(ctx, work.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	after, err := todos.Get(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, []string(after.Categories))

	list, err := categories.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "home", list[0].Name)
	assert.Equal(t, 1, list[0].TodoCount)

	deleted, err = todos.Delete(ctx, first.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	list, err = categories.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, list[0].TodoCount)
}
