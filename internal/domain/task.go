package domain

import "time"

type Task struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	PomodoroCount int       `json:"pomodoro_count"`
	CategoryID    uint      `json:"category_id"`
	Description   *string   `json:"description"`
	OwnerID       uint      `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TaskPage struct {
	Items []Task `json:"data"`
	Total int64  `json:"total"`
}

type Category struct {
	ID          uint    `json:"category_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// TaskPatch carries only the fields a caller wants to change.
type TaskPatch struct {
	Name          *string
	PomodoroCount *int
	CategoryID    *uint
	Description   *string
}

func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.PomodoroCount == nil && p.CategoryID == nil && p.Description == nil
}

// TaskFilter scopes task queries. OwnerID 0 means every owner.
type TaskFilter struct {
	OwnerID    uint
	CategoryID uint
	Offset     int
	Limit      int
}
