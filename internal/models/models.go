package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// DefaultCategoryColor dipakai jika kategori dibuat tanpa warna.
const DefaultCategoryColor = "#007bff"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid melaporkan apakah p salah satu dari low, medium, atau high.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Todo struct {
	ID          int        `json:"id" db:"id"`
	UserID      int        `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	// Categories berisi nama kategori yang terhubung, urut berdasarkan nama.
	Categories pq.StringArray `json:"categories" db:"categories"`
}

type Category struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	TodoCount int       `json:"todo_count" db:"todo_count"`
}

// NewTodo adalah data todo yang sudah divalidasi dan siap disimpan.
type NewTodo struct {
	UserID      int
	Title       string
	Description *string
	Priority    Priority
	DueDate     *time.Time
	CategoryIDs []int
}

// TodoFilter membatasi hasil list todo. Field nil berarti tidak difilter.
type TodoFilter struct {
	Completed  *bool
	CategoryID *int
}

// TodoPatch adalah input update parsial dari client. Hanya field non-nil yang diterapkan.
// DueDate berupa string ISO-8601; string kosong menghapus due date.
type TodoPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// TodoChanges adalah TodoPatch yang sudah divalidasi. DueDate dengan Valid=false
// berarti kolom due_date di-set NULL.
type TodoChanges struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	DueDate     *sql.NullTime
}

// Empty melaporkan apakah tidak ada field yang berubah.
func (c TodoChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Completed == nil && c.Priority == nil && c.DueDate == nil
}
