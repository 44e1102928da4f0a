package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/auth"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/models"
	"finance-dashboard/src/store"
	"finance-dashboard/src/util"
)

const invalidCredentials = "Invalid credentials"

// HashPassword hashes a plain password with bcrypt's default cost.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

type UserService struct {
	store  store.UserStore
	tokens *auth.TokenService
	now    func() time.Time
	logger *logging.Logger
}

func NewUserService(st store.UserStore, tokens *auth.TokenService, logger *logging.Logger) *UserService {
	return &UserService{
		store:  st,
		tokens: tokens,
		now:    time.Now,
		logger: logger.WithComponent(logging.ComponentUsers),
	}
}

// Login checks the credentials and returns the user with a fresh token. Unknown
// email, wrong password and deactivated accounts are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if errs := util.ValidateStruct(req); errs != nil {
		return nil, apperrors.Validation(validationFailed, errs...)
	}

	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Auth(invalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, apperrors.Auth(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)); err != nil {
		s.logger.InfoContext(ctx, "login rejected", logging.FieldUserID, u.ID)
		return nil, apperrors.Auth(invalidCredentials)
	}

	at := s.now().UTC()
	if err := s.store.UpdateLastLogin(ctx, u.ID, at); err != nil {
		return nil, fmt.Errorf("record last login: %w", err)
	}
	u.LastLogin = &at

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.logger.InfoContext(ctx, "user logged in", logging.FieldUserID, u.ID)
	return &models.LoginResponse{User: u, Token: token}, nil
}

// Profile returns an active user.
func (s *UserService) Profile(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, apperrors.NotFound("User not found")
	}
	return u, nil
}

// Refresh issues a new token for a user that is still active.
func (s *UserService) Refresh(ctx context.Context, id string) (*models.LoginResponse, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Auth("User not found or inactive")
		}
		return nil, err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &models.LoginResponse{User: u, Token: token}, nil
}

// Create adds an active account. It is reserved for administrators.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	var fe fieldErrors
	fe.addAll(util.ValidateStruct(req))
	if !util.ValidatePassword(req.Password) {
		fe.add("password", "Password must be at least 8 characters and include upper and lower case letters, a number and a symbol")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("User already exists with this email", err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "user created", logging.FieldUserID, u.ID, "role", u.Role)
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// SetActive enables or disables login for a user.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	u, err := s.store.SetUserActive(ctx, id, active)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("set user active: %w", err)
	}
	s.logger.InfoContext(ctx, "user activation changed", logging.FieldUserID, id, "active", active)
	return u, nil
}
