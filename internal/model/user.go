package model

import "time"

// Role represents a platform role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleLearner Role = "learner"
)

// User represents a platform user (admin, trainer, or learner).
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateUserRequest is the payload for creating a new user account.
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Username  string `json:"username" binding:"required,min=3,max=50"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`
	Role      string `json:"role" binding:"required,oneof=admin trainer learner"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateUserRequest is the payload for updating an existing user.
type UpdateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Username  string `json:"username" binding:"required,min=3,max=50"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`
	Role      string `json:"role" binding:"required,oneof=admin trainer learner"`
	Password  string `json:"password" binding:"omitempty,min=6,max=128"`
}
