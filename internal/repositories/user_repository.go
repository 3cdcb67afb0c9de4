package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ruhafzazahedi/shield/internal/models"
)

type UserRepository interface {
	// Create и Update пишут строку пользователя и password-identity в одной
	// транзакции: если identity не записалась — откатываем всё и отдаём
	// ошибку наверх (пользователь без логин-identity хуже, чем ошибка).
	Create(user *models.User) error
	Update(user *models.User) error

	GetByID(id int) (*models.User, error)
	GetByPhone(phone string) (*models.User, error)
	List(limit, offset int) ([]*models.User, error)
	Delete(id int) error

	Activate(userID int) error
	Deactivate(userID int) error
	UpdateLastActive(userID int) error

	// refresh helpers
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	ClearRefresh(userID int) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userSelect = `
	SELECT
		u.id, u.username, COALESCE(u.email,''), u.active, u.require_2fa,
		COALESCE(u.groups, '{}'), COALESCE(u.telegram_chat_id,0),
		u.last_active, u.created_at,
		u.refresh_token, u.refresh_expires_at, u.refresh_revoked,
		COALESCE(i.secret,''), COALESCE(i.secret2,'')
	FROM users u
	LEFT JOIN auth_identities i ON i.user_id = u.id AND i.type = 'password'
`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var (
		lastActive sql.NullTime
		rt         sql.NullString
		rte        sql.NullTime
		rr         sql.NullBool
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Active, &u.Require2FA,
		pq.Array(&u.Groups), &u.TelegramChatID,
		&lastActive, &u.CreatedAt,
		&rt, &rte, &rr,
		&u.Phone, &u.PasswordHash,
	)
	if err != nil {
		return nil, err
	}
	if lastActive.Valid {
		t := lastActive.Time
		u.LastActive = &t
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	if rr.Valid {
		u.RefreshRevoked = rr.Bool
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("user create: begin: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO users (username, email, active, require_2fa, groups, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := tx.QueryRow(q,
		user.Username, user.Email, user.Active, user.Require2FA,
		pq.Array(user.Groups), user.TelegramChatID,
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("user create: %w", err)
	}

	// password-identity с только что присвоенным id
	const qi = `
		INSERT INTO auth_identities (user_id, type, secret, secret2, name)
		VALUES ($1, 'password', $2, $3, 'primary')
	`
	if _, err := tx.Exec(qi, user.ID, user.Phone, user.PasswordHash); err != nil {
		return fmt.Errorf("user create: password identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("user create: commit: %w", err)
	}
	return nil
}

func (r *userRepository) Update(user *models.User) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("user update: begin: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE users
		SET username=$1, email=$2, active=$3, require_2fa=$4, groups=$5, telegram_chat_id=$6
		WHERE id=$7
	`
	if _, err := tx.Exec(q,
		user.Username, user.Email, user.Active, user.Require2FA,
		pq.Array(user.Groups), user.TelegramChatID, user.ID,
	); err != nil {
		return fmt.Errorf("user update: %w", err)
	}

	const qi = `
		UPDATE auth_identities
		SET secret=$1, secret2=$2
		WHERE user_id=$3 AND type='password'
	`
	res, err := tx.Exec(qi, user.Phone, user.PasswordHash, user.ID)
	if err != nil {
		return fmt.Errorf("user update: password identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user update: password identity rows: %w", err)
	}
	if n == 0 {
		const qins = `
			INSERT INTO auth_identities (user_id, type, secret, secret2, name)
			VALUES ($1, 'password', $2, $3, 'primary')
		`
		if _, err := tx.Exec(qins, user.ID, user.Phone, user.PasswordHash); err != nil {
			return fmt.Errorf("user update: password identity insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("user update: commit: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(userSelect+` WHERE u.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return u, nil
}

// GetByPhone ищет по телефону учётных данных (secret в password-identity).
func (r *userRepository) GetByPhone(phone string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(userSelect+` WHERE LOWER(i.secret) = LOWER($1)`, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get by phone: %w", err)
	}
	return u, nil
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	rows, err := r.DB.Query(userSelect+` ORDER BY u.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var res []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user list: scan: %w", err)
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// Delete удаляет пользователя вместе со всеми его identity (композиция).
func (r *userRepository) Delete(id int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("user delete: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM auth_identities WHERE user_id=$1`, id); err != nil {
		return fmt.Errorf("user delete: identities: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM users WHERE id=$1`, id); err != nil {
		return fmt.Errorf("user delete: %w", err)
	}
	return tx.Commit()
}

func (r *userRepository) Activate(userID int) error {
	_, err := r.DB.Exec(`UPDATE users SET active=TRUE WHERE id=$1`, userID)
	return err
}

func (r *userRepository) Deactivate(userID int) error {
	_, err := r.DB.Exec(`UPDATE users SET active=FALSE WHERE id=$1`, userID)
	return err
}

func (r *userRepository) UpdateLastActive(userID int) error {
	_, err := r.DB.Exec(`UPDATE users SET last_active=NOW() WHERE id=$1`, userID)
	return err
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.DB.Exec(q, token, expiresAt, userID)
	return err
}

func (r *userRepository) ClearRefresh(userID int) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(userSelect+` WHERE u.refresh_token = $1`, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get by refresh token: %w", err)
	}
	return u, nil
}
