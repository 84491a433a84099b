package services

import "errors"

// Shared errors used across services and HTTP mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrInvalidTournamentSize  = errors.New("tournament size must be 4 or 8")
	ErrInvalidWinner          = errors.New("winner is not a player of this match")
	ErrInvalidLogoType        = errors.New("logo must be an image")
	ErrTournamentNameTaken    = errors.New("tournament name already in use")
	ErrLogoStorageDisabled    = errors.New("logo storage is not configured")

	// Join-time validation
	ErrAlreadyJoined        = errors.New("user already joined this tournament")
	ErrNotAcceptingPlayers  = errors.New("tournament is not accepting players")
	ErrTournamentFull       = errors.New("tournament is full")

	// Match creation and commands
	ErrSelfMatch          = errors.New("cannot start a match against yourself")
	ErrAlreadyQueued      = errors.New("player is already waiting for a quick-play opponent")
	ErrAlreadyInMatch     = errors.New("player already has an active match")
	ErrMatchNotStartable  = errors.New("tournament match cannot be started in its current state")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Entity-specific lookups
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("tournament match not found")
	ErrSessionNotFound    = errors.New("session not found")
)
