package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"belajar-todo/configs"
	"belajar-todo/internal/api/v1/handlers"
	"belajar-todo/internal/repository"
	"belajar-todo/internal/service"
	"belajar-todo/internal/websocket"
	"belajar-todo/pkg/crypto"
	"belajar-todo/pkg/token"
)

// Dependencies berisi semua komponen yang dipakai route dan command.
// Tidak ada state global; setiap proses membangun satu Dependencies.
type Dependencies struct {
	DB       *sqlx.DB      // nil pada test yang memakai store in-memory
	Redis    *redis.Client // nil jika REDIS_HOST kosong
	Validate *validator.Validate
	Tokens   *token.Codec
	Hasher   *crypto.Hasher
	Auth     *service.AuthService
	Todos    *service.TodoService
	Hub      *websocket.Hub
}

// Stores adalah implementasi penyimpanan yang dipakai service.
type Stores struct {
	Users      service.UserStore
	Todos      service.TodoStore
	Categories service.CategoryStore
}

// New merakit service dari store yang diberikan.
func New(stores Stores, tokens *token.Codec, hasher *crypto.Hasher) *Dependencies {
	return &Dependencies{
		Validate: handlers.NewValidator(),
		Tokens:   tokens,
		Hasher:   hasher,
		Auth:     service.NewAuthService(stores.Users, hasher, tokens),
		Todos:    service.NewTodoService(stores.Todos, stores.Categories),
		Hub:      websocket.NewHub(256),
	}
}

// FromConfig merakit Dependencies dengan repository Postgres.
func FromConfig(cfg configs.Config, db *sqlx.DB, rdb *redis.Client) (*Dependencies, error) {
	tokens, err := token.NewCodec(token.Config{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL})
	if err != nil {
		return nil, err
	}
	deps := New(Stores{
		Users:      repository.NewUserRepository(db),
		Todos:      repository.NewTodoRepository(db),
		Categories: repository.NewCategoryRepository(db),
	}, tokens, crypto.NewHasher(cfg.BcryptCost))
	deps.DB = db
	deps.Redis = rdb
	return deps, nil
}
