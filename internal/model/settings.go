package model

import "time"

// UserSettings is the per-user settings singleton.
type UserSettings struct {
	AutoAcceptTodos bool      `json:"auto_accept_todos" yaml:"auto_accept_todos"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at"`
}

// SettingsUpdate changes user settings.
type SettingsUpdate struct {
	AutoAcceptTodos *bool `json:"auto_accept_todos,omitempty" validate:"required"`
}
