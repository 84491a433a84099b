package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Transcendigos/tscd-main-sub000/models"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is a read-only view: account management belongs to the
// auth service, the engine only needs display names.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int) (map[int]*models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, display_name, created_at FROM users WHERE id = $1`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user %d: %w", id, err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetByIDs(ctx context.Context, ids []int) (map[int]*models.User, error) {
	if len(ids) == 0 {
		return map[int]*models.User{}, nil
	}
	query := `SELECT id, display_name, created_at FROM users WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make(map[int]*models.User, len(ids))
	for rows.Next() {
		u := &models.User{}
		if scanErr := rows.Scan(&u.ID, &u.DisplayName, &u.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", scanErr)
		}
		users[u.ID] = u
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during user rows iteration: %w", err)
	}
	return users, nil
}
