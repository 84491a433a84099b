package models

import "time"

// TournamentStatus mirrors the ENUM in the tournaments table.
type TournamentStatus string

const (
	TournamentWaiting    TournamentStatus = "waiting"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentFinished   TournamentStatus = "finished"
	TournamentAborted    TournamentStatus = "aborted"
)

// Tournament is a single-elimination bracket of 4 or 8 players.
type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	CreatorID int              `json:"creator_id" db:"creator_id"`
	Size      int              `json:"size" db:"size"`
	Status    TournamentStatus `json:"status" db:"status"`
	WinnerID  *int             `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	LogoKey   *string          `json:"-" db:"logo_key"`
	LogoURL   *string          `json:"logo_url,omitempty" db:"-"`

	// Loaded on demand, not mapped directly.
	Participants []Participant     `json:"participants,omitempty" db:"-"`
	Matches      []TournamentMatch `json:"matches,omitempty" db:"-"`
}
