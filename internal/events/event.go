package events

import "time"

const (
	UserRegistered = "user_registered"
	UserLoggedIn   = "user_logged_in"

	TaskCreated  = "task_created"
	TaskUpdated  = "task_updated"
	TaskDeleted  = "task_deleted"
	TaskRestored = "task_restored"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"userID"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

type TaskEvent struct {
	Type    string    `json:"type"`
	TaskID  uint      `json:"taskID"`
	OwnerID uint      `json:"ownerID"`
	Name    string    `json:"name,omitempty"`
	At      time.Time `json:"at"`
}
