package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Transcendigos/tscd-main-sub000/models"
)

type MatchHistoryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, h *models.MatchHistory) error
	ListByPlayer(ctx context.Context, playerID int, limit int) ([]*models.MatchHistory, error)
}

type postgresMatchHistoryRepository struct {
	db *sql.DB
}

func NewPostgresMatchHistoryRepository(db *sql.DB) MatchHistoryRepository {
	return &postgresMatchHistoryRepository{db: db}
}

func (r *postgresMatchHistoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchHistoryRepository) Create(ctx context.Context, exec SQLExecutor, h *models.MatchHistory) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_history
			(player1_id, player2_id, player1_score, player2_score, winner_id, tournament_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, played_at`

	err := executor.QueryRowContext(ctx, query,
		h.Player1ID, h.Player2ID, h.Player1Score, h.Player2Score, h.WinnerID, h.TournamentID,
	).Scan(&h.ID, &h.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match history: %w", err)
	}
	return nil
}

func (r *postgresMatchHistoryRepository) ListByPlayer(ctx context.Context, playerID int, limit int) ([]*models.MatchHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, player1_id, player2_id, player1_score, player2_score, winner_id, tournament_id, played_at
		FROM match_history
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY played_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history for player %d: %w", playerID, err)
	}
	defer rows.Close()

	records := make([]*models.MatchHistory, 0)
	for rows.Next() {
		var h models.MatchHistory
		if scanErr := rows.Scan(
			&h.ID, &h.Player1ID, &h.Player2ID, &h.Player1Score, &h.Player2Score,
			&h.WinnerID, &h.TournamentID, &h.PlayedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match history row: %w", scanErr)
		}
		records = append(records, &h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match history rows iteration: %w", err)
	}
	return records, nil
}
