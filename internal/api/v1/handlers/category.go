package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"belajar-todo/internal/middleware"
	"belajar-todo/internal/service"
)

type CategoryHandler struct {
	todos    *service.TodoService
	validate *validator.Validate
}

func NewCategoryHandler(todos *service.TodoService, validate *validator.Validate) *CategoryHandler {
	return &CategoryHandler{todos: todos, validate: validate}
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.todos.ListCategories(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req createCategoryRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}
	category, err := h.todos.CreateCategory(c.UserContext(), middleware.UserID(c), req.Name, req.Color)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// Delete menghapus kategori; todo yang terhubung tetap ada.
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid category id")
	}
	deleted, err := h.todos.DeleteCategory(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "category not found"})
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}
