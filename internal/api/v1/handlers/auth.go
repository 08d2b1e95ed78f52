package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"belajar-todo/internal/middleware"
	"belajar-todo/internal/models"
	"belajar-todo/internal/service"
)

// AuthHandler melayani register, login, dan profile.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

func NewAuthHandler(auth *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: auth, validate: validate}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// loginRequest: username boleh berisi email.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}

	res, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tokenResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		User:        res.User,
	})
}

// fungsi login dengan menggunakan JSON Web Token (JWT)
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(tokenResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		User:        res.User,
	})
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, err := h.auth.Profile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}
