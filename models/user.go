package models

import "time"

// User carries only the display fields the engine needs. Accounts and
// credentials live in the auth service, not here.
type User struct {
	ID          int       `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
