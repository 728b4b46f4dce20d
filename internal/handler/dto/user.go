package dto

import (
	"time"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries a fresh access token.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"` // seconds
	User      *UserResponse `json:"user"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Phone     string     `json:"phone,omitempty"`
	Village   string     `json:"village,omitempty"`
	Active    bool       `json:"active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      string(user.Role),
		Phone:     user.Phone,
		Village:   user.Village,
		Active:    user.Active,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}

// UpdateProfileRequest represents partial profile changes.
type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Village *string `json:"village,omitempty" validate:"omitempty,max=128"`
}

// ChangePasswordRequest represents a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// PreferencesRequest represents a preference update.
type PreferencesRequest struct {
	Preferences map[string]string `json:"preferences" validate:"required"`
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,min=1,max=128"`
	Role     string `json:"role" validate:"required,oneof=asha supervisor admin"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Village  string `json:"village,omitempty" validate:"omitempty,max=128"`
}

// SetUserActiveRequest enables or disables an account.
type SetUserActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}
