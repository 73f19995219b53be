package dto

import (
	"time"

	"github.com/yukikurage/task-assignment-api/internal/models"
	"github.com/yukikurage/task-assignment-api/internal/optional"
	"github.com/yukikurage/task-assignment-api/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Role        models.Role `json:"role"`
	IsSuperuser bool        `json:"is_superuser"`
	Position    string      `json:"position"`
	Phone       *string     `json:"phone"`
	Company     string      `json:"company"`
	Department  string      `json:"department"`
	Address     string      `json:"address"`
	Notes       string      `json:"notes"`
	DateJoined  time.Time   `json:"date_joined"`
}

// UserSummaryDTO is the user block returned with a login token pair
type UserSummaryDTO struct {
	ID          uint64      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	IsSuperuser bool        `json:"is_superuser"`
}

// UserRequest is the body of register, user update and profile update requests
type UserRequest struct {
	Username   optional.Field[string]      `json:"username"`
	Email      optional.Field[string]      `json:"email"`
	Phone      optional.Field[string]      `json:"phone"`
	FirstName  optional.Field[string]      `json:"first_name"`
	LastName   optional.Field[string]      `json:"last_name"`
	Position   optional.Field[string]      `json:"position"`
	Company    optional.Field[string]      `json:"company"`
	Department optional.Field[string]      `json:"department"`
	Address    optional.Field[string]      `json:"address"`
	Notes      optional.Field[string]      `json:"notes"`
	Role       optional.Field[models.Role] `json:"role"`
	Password   optional.Field[string]      `json:"password"`
}

// ToInput converts the request into service input
func (r UserRequest) ToInput() services.UserInput {
	return services.UserInput{
		Username:   r.Username,
		Email:      r.Email,
		Phone:      r.Phone,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Position:   r.Position,
		Company:    r.Company,
		Department: r.Department,
		Address:    r.Address,
		Notes:      r.Notes,
		Role:       r.Role,
		Password:   r.Password,
	}
}

// LoginRequest holds login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is a token pair plus the user summary
type LoginResponse struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    UserSummaryDTO `json:"user"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// PasswordResetRequest starts a password reset
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// PasswordResetConfirmRequest completes a password reset
type PasswordResetConfirmRequest struct {
	UID      string `json:"uid" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
		Position:    user.Position,
		Phone:       user.Phone,
		Company:     user.Company,
		Department:  user.Department,
		Address:     user.Address,
		Notes:       user.Notes,
		DateJoined:  user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
	}
}
