package v1

import (
	"github.com/gofiber/fiber/v2"

	"belajar-todo/internal/api/v1/handlers"
	"belajar-todo/internal/config"
	"belajar-todo/internal/middleware"
)

// RegisterRoutes memasang semua endpoint di router. main memasangnya di
// bawah /api; test memasangnya langsung di root app.
func RegisterRoutes(router fiber.Router, deps *config.Dependencies) {
	var pinger handlers.Pinger
	if deps.DB != nil {
		pinger = deps.DB
	}
	health := handlers.NewHealthHandler(pinger)
	auth := handlers.NewAuthHandler(deps.Auth, deps.Validate)
	todos := handlers.NewTodoHandler(deps.Todos, deps.Validate, deps.Hub)
	categories := handlers.NewCategoryHandler(deps.Todos, deps.Validate)
	ws := handlers.NewWSHandler(deps.Hub)

	router.Get("/health", health.Check)

	// Auth
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", auth.Register)
	authRoutes.Post("/login", auth.Login)
	authRoutes.Get("/profile", middleware.UseToken(deps.Tokens), auth.Profile)

	// Todo
	todoRoutes := router.Group("/todo", middleware.UseToken(deps.Tokens))
	todoRoutes.Get("/todos", todos.List)
	todoRoutes.Post("/todos", todos.Create)
	todoRoutes.Get("/todos/:id", todos.Get)
	todoRoutes.Put("/todos/:id", todos.Update)
	todoRoutes.Delete("/todos/:id", todos.Delete)
	todoRoutes.Patch("/todos/:id/toggle", todos.Toggle)
	todoRoutes.Get("/stats", todos.Stats)

	// Category
	todoRoutes.Get("/categories", categories.List)
	todoRoutes.Post("/categories", categories.Create)
	todoRoutes.Delete("/categories/:id", categories.Delete)

	// WebSocket
	router.Get("/ws",
		middleware.UseTokenOrQuery(deps.Tokens, "access_token"),
		ws.RequireUpgrade,
		ws.Stream(),
	)
}
