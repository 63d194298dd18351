package models

import (
	"time"

	"gorm.io/gorm"
)

// Base is embedded by every table; DeletedAt turns Delete into a soft delete.
type Base struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"not null"                 json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null"                 json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"                    json:"-"`
}

type User struct {
	Base
	Username     string `gorm:"size:64;uniqueIndex;not null"   json:"username"`
	Email        string `gorm:"size:255;uniqueIndex;not null"  json:"email"`
	PasswordHash string `gorm:"not null"                       json:"-"`
	Role         string `gorm:"size:16;not null;default:user"  json:"role"`
	Permissions  string `gorm:"size:64;not null"               json:"permissions"`
	RefreshJTI   string `gorm:"size:64"                        json:"-"`
}

type Category struct {
	Base
	Name        string  `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description *string `gorm:"size:100"                     json:"description"`
}

type Task struct {
	Base
	Name          string  `gorm:"size:80;not null"           json:"name"`
	PomodoroCount int     `gorm:"not null;default:1"         json:"pomodoro_count"`
	CategoryID    uint    `gorm:"index;not null"             json:"category_id"`
	Description   *string `gorm:"size:200"                   json:"description"`
	OwnerID       uint    `gorm:"index;not null"             json:"owner_id"`
}

func All() []any {
	return []any{&User{}, &Category{}, &Task{}}
}
