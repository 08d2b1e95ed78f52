package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"belajar-todo/internal/middleware"
	"belajar-todo/internal/models"
	"belajar-todo/internal/service"
	"belajar-todo/internal/websocket"
)

// TodoHandler melayani CRUD todo dan statistik. Setiap perubahan dikirim ke
// koneksi WebSocket milik user yang sama.
type TodoHandler struct {
	todos    *service.TodoService
	validate *validator.Validate
	events   websocket.Publisher
}

func NewTodoHandler(todos *service.TodoService, validate *validator.Validate, events websocket.Publisher) *TodoHandler {
	if events == nil {
		events = websocket.Discard{}
	}
	return &TodoHandler{todos: todos, validate: validate, events: events}
}

type createTodoRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"`
	CategoryIDs []int   `json:"category_ids" validate:"omitempty,dive,gt=0"`
}

func (h *TodoHandler) List(c *fiber.Ctx) error {
	var filter models.TodoFilter
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "completed must be true or false")
		}
		filter.Completed = &completed
	}
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "category_id must be an integer")
		}
		filter.CategoryID = &categoryID
	}

	todos, err := h.todos.ListTodos(c.UserContext(), middleware.UserID(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(todos)
}

func (h *TodoHandler) Create(c *fiber.Ctx) error {
	var req createTodoRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}

	userID := middleware.UserID(c)
	todo, err := h.todos.CreateTodo(c.UserContext(), userID, service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return writeError(c, err)
	}
	h.events.Publish(userID, websocket.Event{Type: websocket.EventTodoCreated, Data: todo})
	return c.Status(fiber.StatusCreated).JSON(todo)
}

func (h *TodoHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid todo id")
	}
	todo, err := h.todos.GetTodo(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(todo)
}

// Update hanya menerapkan field yang dikirim; field lain diabaikan.
func (h *TodoHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid todo id")
	}
	var patch models.TodoPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}

	userID := middleware.UserID(c)
	todo, err := h.todos.UpdateTodo(c.UserContext(), id, userID, patch)
	if err != nil {
		return writeError(c, err)
	}
	h.events.Publish(userID, websocket.Event{Type: websocket.EventTodoUpdated, Data: todo})
	return c.JSON(todo)
}

func (h *TodoHandler) Toggle(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid todo id")
	}
	userID := middleware.UserID(c)
	todo, err := h.todos.ToggleTodo(c.UserContext(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	h.events.Publish(userID, websocket.Event{Type: websocket.EventTodoToggled, Data: todo})
	return c.JSON(todo)
}

func (h *TodoHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid todo id")
	}
	userID := middleware.UserID(c)
	deleted, err := h.todos.DeleteTodo(c.UserContext(), id, userID)
	if err != nil {
		return writeError(c, err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "todo not found"})
	}
	h.events.Publish(userID, websocket.Event{Type: websocket.EventTodoDeleted, Data: fiber.Map{"id": id}})
	return c.JSON(fiber.Map{"message": "Todo deleted successfully"})
}

func (h *TodoHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.todos.Stats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}
