package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/DigiStoreBot/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `
SELECT id, COALESCE(username, ''), full_name, created_at
FROM users WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Ensure inserts the user or refreshes handle, name and activity time. The
// boolean reports whether a new row was created.
func (r *UserRepository) Ensure(ctx context.Context, id int64, username, fullName string) (*models.User, bool, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		if err := r.UpdateProfile(ctx, id, username, fullName); err != nil {
			return nil, false, err
		}
		user.Username, user.FullName = username, fullName
		return user, false, nil
	}

	const query = `
INSERT INTO users (id, username, full_name, last_active_at)
VALUES (?, NULLIF(?, ''), ?, NOW())
ON DUPLICATE KEY UPDATE username = VALUES(username), full_name = VALUES(full_name), last_active_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, id, username, fullName); err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}
	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if created == nil {
		return nil, false, fmt.Errorf("user %d missing after insert", id)
	}
	return created, true, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, username, fullName string) error {
	const query = `
UPDATE users SET username = NULLIF(?, ''), full_name = ?, last_active_at = NOW()
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, username, fullName, id); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT id FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
