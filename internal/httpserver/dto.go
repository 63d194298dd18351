package httpserver

import "github.com/Skotchmaster/task_manager/internal/domain"

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=64,excludes=@"`
	Email    string `json:"email"    form:"email"    validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

// LoginRequest accepts a username or an email in Username.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterResponse struct {
	TokenResponse
	User *domain.User `json:"user"`
}

type CreateTaskRequest struct {
	Name          string  `json:"name"           validate:"max=80"`
	PomodoroCount *int    `json:"pomodoro_count" validate:"omitempty,gt=0"`
	CategoryID    uint    `json:"category_id"    validate:"required,gt=0"`
	Description   *string `json:"description"    validate:"omitempty,max=200"`
}

type PatchTaskRequest struct {
	Name          *string `json:"name"           validate:"omitempty,max=80"`
	PomodoroCount *int    `json:"pomodoro_count" validate:"omitempty,gt=0"`
	CategoryID    *uint   `json:"category_id"    validate:"omitempty,gt=0"`
	Description   *string `json:"description"    validate:"omitempty,max=200"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name"        validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=100"`
}

type UpdateAccessRequest struct {
	Role        string   `json:"role"        validate:"required,oneof=admin user"`
	Permissions []string `json:"permissions" validate:"required,dive,oneof=read write delete"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type TaskListResponse struct {
	Data []domain.Task `json:"data"`
	Meta PageMeta      `json:"meta"`
}
