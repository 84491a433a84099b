package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Transcendigos/tscd-main-sub000/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound       = errors.New("tournament match not found")
	ErrMatchPlayerInvalid  = errors.New("tournament match player conflict or invalid")
	ErrMatchSlotConflict   = errors.New("tournament match slot conflict")
	ErrMatchTournamentGone = errors.New("tournament match tournament conflict or invalid")
)

type TournamentMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.TournamentMatch) error
	GetByID(ctx context.Context, id int) (*models.TournamentMatch, error)
	// GetByIDForUpdate locks the row for the duration of the caller's
	// transaction; result reporting relies on it for idempotence.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentMatch, error)
	GetBySessionRef(ctx context.Context, sessionRef string) (*models.TournamentMatch, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int, status *models.MatchStatus) ([]*models.TournamentMatch, error)
	SetResult(ctx context.Context, exec SQLExecutor, id int, winnerID int) error
	UpdateStatusSession(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, sessionRef *string) error
}

type postgresTournamentMatchRepository struct {
	db *sql.DB
}

func NewPostgresTournamentMatchRepository(db *sql.DB) TournamentMatchRepository {
	return &postgresTournamentMatchRepository{db: db}
}

func (r *postgresTournamentMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentMatchColumns = `id, tournament_id, round, match_in_round, player1_id, player2_id, winner_id, status, session_ref, created_at`

func scanTournamentMatch(row interface{ Scan(...interface{}) error }, m *models.TournamentMatch) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.MatchInRound,
		&m.Player1ID, &m.Player2ID, &m.WinnerID, &m.Status, &m.SessionRef, &m.CreatedAt,
	)
}

func (r *postgresTournamentMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.TournamentMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_matches
			(tournament_id, round, match_in_round, player1_id, player2_id, winner_id, status, session_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.MatchInRound,
		m.Player1ID, m.Player2ID, m.WinnerID, m.Status, m.SessionRef,
	).Scan(&m.ID, &m.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresTournamentMatchRepository) GetByID(ctx context.Context, id int) (*models.TournamentMatch, error) {
	query := `SELECT ` + tournamentMatchColumns + ` FROM tournament_matches WHERE id = $1`

	m := &models.TournamentMatch{}
	err := scanTournamentMatch(r.db.QueryRowContext(ctx, query, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresTournamentMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentMatchColumns + ` FROM tournament_matches WHERE id = $1 FOR UPDATE`

	m := &models.TournamentMatch{}
	err := scanTournamentMatch(executor.QueryRowContext(ctx, query, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock tournament match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresTournamentMatchRepository) GetBySessionRef(ctx context.Context, sessionRef string) (*models.TournamentMatch, error) {
	query := `SELECT ` + tournamentMatchColumns + ` FROM tournament_matches WHERE session_ref = $1`

	m := &models.TournamentMatch{}
	err := scanTournamentMatch(r.db.QueryRowContext(ctx, query, sessionRef), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament match by session %q: %w", sessionRef, err)
	}
	return m, nil
}

func (r *postgresTournamentMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.TournamentMatch, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tournamentMatchColumns + ` FROM tournament_matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY round ASC, match_in_round ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.TournamentMatch, 0)
	for rows.Next() {
		var m models.TournamentMatch
		if scanErr := scanTournamentMatch(rows, &m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresTournamentMatchRepository) SetResult(ctx context.Context, exec SQLExecutor, id int, winnerID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournament_matches SET status = $1, winner_id = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, models.MatchFinished, winnerID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresTournamentMatchRepository) UpdateStatusSession(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus, sessionRef *string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournament_matches SET status = $1, session_ref = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, status, sessionRef, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresTournamentMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrMatchSlotConflict
		case "23503":
			switch pqErr.Constraint {
			case "tournament_matches_tournament_id_fkey":
				return ErrMatchTournamentGone
			default:
				return ErrMatchPlayerInvalid
			}
		}
	}
	return err
}
