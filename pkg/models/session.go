// Package models defines the persisted entities and the request types used by
// the store and service layers. Entities are plain structs; the store owns
// their SQL mapping.
package models

import "time"

// Session is one user conversation. It owns its Messages and ThinkingLogs.
type Session struct {
	ID               string     `json:"id"`
	Title            *string    `json:"title,omitempty"`
	ActiveContractID *string    `json:"active_contract_id,omitempty"`
	MessageCount     int        `json:"message_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SessionFilters contains filtering options for listing sessions.
type SessionFilters struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// UpdateSessionRequest carries the mutable session fields. Nil pointers are
// left unchanged.
type UpdateSessionRequest struct {
	Title            *string
	ActiveContractID *string
}
