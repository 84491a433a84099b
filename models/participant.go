package models

import "time"

// Participant is one user's registration in one tournament. Rows are
// immutable after the join succeeds.
type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	JoinOrder    int       `json:"join_order"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `json:"user,omitempty"`
}
