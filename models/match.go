package models

import "time"

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchFinished   MatchStatus = "finished"
)

// TournamentMatch is one bracket slot. Both players are known at creation
// time because a round is only inserted once its pairing is decided.
type TournamentMatch struct {
	ID           int         `json:"id"`
	TournamentID int         `json:"tournament_id"`
	Round        int         `json:"round"`
	MatchInRound int         `json:"match_in_round"`
	Player1ID    int         `json:"player1_id"`
	Player2ID    int         `json:"player2_id"`
	WinnerID     *int        `json:"winner_id,omitempty"`
	Status       MatchStatus `json:"status"`
	SessionRef   *string     `json:"session_ref,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// MatchHistory is the durable record of a finished match, tournament or not.
type MatchHistory struct {
	ID           int       `json:"id"`
	Player1ID    int       `json:"player1_id"`
	Player2ID    int       `json:"player2_id"`
	Player1Score int       `json:"player1_score"`
	Player2Score int       `json:"player2_score"`
	WinnerID     int       `json:"winner_id"`
	TournamentID *int      `json:"tournament_id,omitempty"`
	PlayedAt     time.Time `json:"played_at"`
}
