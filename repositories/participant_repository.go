package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Transcendigos/tscd-main-sub000/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("user already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user conflict or invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, includeUsers bool) ([]*models.Participant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id, join_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		p.TournamentID, p.UserID, p.JoinOrder,
	).Scan(&p.ID, &p.CreatedAt)

	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, join_order, created_at
		FROM tournament_participants
		WHERE user_id = $1 AND tournament_id = $2`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, userID, tournamentID).Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.JoinOrder, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_participants WHERE tournament_id = $1`,
		tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, includeUsers bool) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)

	query := `
		SELECT p.id, p.tournament_id, p.user_id, p.join_order, p.created_at
		FROM tournament_participants p
		WHERE p.tournament_id = $1
		ORDER BY p.join_order ASC`
	if includeUsers {
		query = `
		SELECT p.id, p.tournament_id, p.user_id, p.join_order, p.created_at,
		       u.id, u.display_name, u.created_at
		FROM tournament_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.tournament_id = $1
		ORDER BY p.join_order ASC`
	}

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if includeUsers {
			p.User = &models.User{}
			err = rows.Scan(
				&p.ID, &p.TournamentID, &p.UserID, &p.JoinOrder, &p.CreatedAt,
				&p.User.ID, &p.User.DisplayName, &p.User.CreatedAt,
			)
		} else {
			err = rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.JoinOrder, &p.CreatedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrParticipantConflict
		case "23503":
			switch pqErr.Constraint {
			case "tournament_participants_user_id_fkey":
				return ErrParticipantUserInvalid
			default:
				return ErrParticipantTournamentInvalid
			}
		}
	}
	return err
}
