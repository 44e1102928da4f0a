package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PasswordHash []byte     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Role      Role   `json:"role" validate:"omitempty,oneof=admin user"`
}

func (LoginRequest) FieldMessages() map[string]string {
	return map[string]string{
		"email":    "Please provide a valid email",
		"password": "Password must be at least 6 characters long",
	}
}

func (CreateUserRequest) FieldMessages() map[string]string {
	return map[string]string{
		"email":     "Please provide a valid email",
		"firstName": "First name is required and must be under 50 characters",
		"lastName":  "Last name is required and must be under 50 characters",
		"role":      "Role must be admin or user",
	}
}
