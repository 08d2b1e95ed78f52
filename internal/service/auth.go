package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"belajar-todo/internal/models"
	"belajar-todo/internal/repository"
	"belajar-todo/pkg/crypto"
	"belajar-todo/pkg/logger"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 6

// maxIdentityLength matches the users.username / users.email column size.
const maxIdentityLength = 255

// AuthResult is what register and login hand back to the caller.
type AuthResult struct {
	Token string
	User  *models.User
}

type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a user and returns a token bound to the new id.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, validationf("username is required")
	}
	if email == "" {
		return nil, validationf("email is required")
	}
	if utf8.RuneCountInString(username) > maxIdentityLength || utf8.RuneCountInString(email) > maxIdentityLength {
		return nil, validationf("username and email must be at most %d characters", maxIdentityLength)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, validationf("invalid email format")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, validationf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > crypto.MaxPasswordBytes {
		return nil, validationf("password must be at most %d bytes", crypto.MaxPasswordBytes)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.SecurityLogger.Warn("Duplicate registration", zap.String("username", username))
		return nil, conflictf("username or email already exists")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique constraint is authoritative; the pre-check above can race.
		if errors.Is(err, repository.ErrDuplicate) {
			logger.SecurityLogger.Warn("Duplicate registration", zap.String("username", username))
			return nil, conflictf("username or email already exists")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	logger.AuditLogger.Info("User registered successfully", zap.Int("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

// Login accepts either the username or the email as identifier. Unknown users
// and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	user, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.SecurityLogger.Warn("Login for unknown user", zap.String("identifier", identifier))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		logger.SecurityLogger.Warn("Invalid password", zap.Int("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("user not found")
		}
		return nil, err
	}
	return user, nil
}
