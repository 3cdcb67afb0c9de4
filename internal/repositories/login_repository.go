package repositories

import (
	"database/sql"
	"fmt"

	"github.com/ruhafzazahedi/shield/internal/models"
)

// LoginRepository — журнал попыток входа, только append.
type LoginRepository interface {
	RecordAttempt(a *models.LoginAttempt) error
	ListRecent(limit int) ([]*models.LoginAttempt, error)
}

type loginRepository struct {
	DB *sql.DB
}

func NewLoginRepository(db *sql.DB) LoginRepository {
	return &loginRepository{DB: db}
}

func (r *loginRepository) RecordAttempt(a *models.LoginAttempt) error {
	const q = `
		INSERT INTO login_attempts (type, identifier, success, ip_address, user_agent, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	var userID sql.NullInt64
	if a.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*a.UserID), Valid: true}
	}
	if err := r.DB.QueryRow(q,
		a.Type, a.Identifier, a.Success, a.IPAddress, a.UserAgent, userID,
	).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("login attempt record: %w", err)
	}
	return nil
}

func (r *loginRepository) ListRecent(limit int) ([]*models.LoginAttempt, error) {
	const q = `
		SELECT id, type, identifier, success, ip_address, user_agent, user_id, created_at
		FROM login_attempts
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.DB.Query(q, limit)
	if err != nil {
		return nil, fmt.Errorf("login attempts list: %w", err)
	}
	defer rows.Close()

	var res []*models.LoginAttempt
	for rows.Next() {
		a := &models.LoginAttempt{}
		var userID sql.NullInt64
		if err := rows.Scan(
			&a.ID, &a.Type, &a.Identifier, &a.Success, &a.IPAddress, &a.UserAgent, &userID, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("login attempts list: scan: %w", err)
		}
		if userID.Valid {
			id := int(userID.Int64)
			a.UserID = &id
		}
		res = append(res, a)
	}
	return res, rows.Err()
}
