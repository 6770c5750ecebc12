package dto

import (
	"time"

	"edufolio/internal/entity"
)

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=255"`
	Password string  `json:"password" validate:"required,min=8"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required,min=8"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type VerifyProfileRequest struct {
	Code        string  `json:"code" validate:"required,len=6,numeric"`
	FullName    *string `json:"full_name" validate:"omitempty,max=255"`
	NewPassword *string `json:"new_password" validate:"omitempty,min=8"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ProfileResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	FullName  *string   `json:"full_name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ProfileResponseFromEntity(user *entity.User) ProfileResponse {
	return ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type UserListItem struct {
	ID       uint    `json:"id"`
	FullName *string `json:"full_name,omitempty"`
	Role     string  `json:"role"`
}

func UserListFromEntities(users []entity.User) []UserListItem {
	items := make([]UserListItem, 0, len(users))
	for i := range users {
		items = append(items, UserListItem{
			ID:       users[i].ID,
			FullName: users[i].FullName,
			Role:     string(users[i].Role),
		})
	}
	return items
}
