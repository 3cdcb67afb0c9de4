package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/utils"
)

// SecretStrategy — явный выбор генератора секрета вместо передачи
// замыканий через слой хранения.
type SecretStrategy int

const (
	SecretNumeric SecretStrategy = iota // код фиксированной длины
	SecretToken                         // непрозрачный hex-токен
)

// GeneratorConfig — параметры генерации, снятые с конфига приложения.
type GeneratorConfig struct {
	CodeLength       int
	CodeExcludeDigit string
	TokenBytes       int
}

type IdentityRepository interface {
	// CreateChallenge удаляет прежние записи типа и вставляет новую с
	// рассчитанным expires. Возвращает секрет открытым текстом — он нужен
	// вызывающему для передачи в шлюз доставки.
	CreateChallenge(userID int, typ models.IdentityType, name, extra string, strategy SecretStrategy, ttl time.Duration) (string, error)

	DeleteByType(userID int, typ models.IdentityType) error
	GetByType(userID int, typ models.IdentityType) (*models.Identity, error)
	GetBySecret(typ models.IdentityType, secret string) (*models.Identity, error)
	Delete(id int64) error

	// ConsumeByID — атомарное удаление после успешной проверки: только один
	// из конкурентных запросов получит true.
	ConsumeByID(id int64) (bool, error)

	// ConsumeBySecret — поиск по секрету с удалением в одном statement
	// (magic-link: запись снимается до проверки срока действия).
	ConsumeBySecret(typ models.IdentityType, secret string) (*models.Identity, error)

	// GetByUserIDs — пакетная загрузка для списков пользователей.
	// Пользователи без identity в карте отсутствуют.
	GetByUserIDs(userIDs []int) (map[int][]*models.Identity, error)
}

type identityRepository struct {
	DB  *sql.DB
	gen GeneratorConfig
}

func NewIdentityRepository(db *sql.DB, gen GeneratorConfig) IdentityRepository {
	return &identityRepository{DB: db, gen: gen}
}

const identityColumns = `id, user_id, type, secret, COALESCE(secret2,''), COALESCE(name,''), COALESCE(extra,''), expires, created_at`

func scanIdentity(row interface{ Scan(...any) error }) (*models.Identity, error) {
	var ident models.Identity
	var expires sql.NullTime
	if err := row.Scan(
		&ident.ID, &ident.UserID, &ident.Type, &ident.Secret, &ident.Secret2,
		&ident.Name, &ident.Extra, &expires, &ident.CreatedAt,
	); err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		ident.Expires = &t
	}
	return &ident, nil
}

func (r *identityRepository) generateSecret(strategy SecretStrategy) (string, error) {
	switch strategy {
	case SecretNumeric:
		return utils.GenerateCode(r.gen.CodeLength, r.gen.CodeExcludeDigit)
	case SecretToken:
		return utils.GenerateToken(r.gen.TokenBytes)
	default:
		return "", fmt.Errorf("identity: unknown secret strategy %d", strategy)
	}
}

func (r *identityRepository) CreateChallenge(userID int, typ models.IdentityType, name, extra string, strategy SecretStrategy, ttl time.Duration) (string, error) {
	secret, err := r.generateSecret(strategy)
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(ttl)

	// delete-then-insert в одной транзакции; уникальный индекс по
	// (user_id, type) для челлендж-типов сериализует конкурентную выдачу —
	// выживает ровно одна активная запись.
	tx, err := r.DB.Begin()
	if err != nil {
		return "", fmt.Errorf("identity create challenge: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM auth_identities WHERE user_id=$1 AND type=$2`, userID, typ); err != nil {
		return "", fmt.Errorf("identity create challenge: delete stale: %w", err)
	}

	const q = `
		INSERT INTO auth_identities (user_id, type, secret, name, extra, expires)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	if err := tx.QueryRow(q, userID, typ, secret, name, extra, expires).Scan(&id); err != nil {
		return "", fmt.Errorf("identity create challenge: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("identity create challenge: commit: %w", err)
	}
	return secret, nil
}

func (r *identityRepository) DeleteByType(userID int, typ models.IdentityType) error {
	if _, err := r.DB.Exec(`DELETE FROM auth_identities WHERE user_id=$1 AND type=$2`, userID, typ); err != nil {
		return fmt.Errorf("identity delete by type: %w", err)
	}
	return nil
}

func (r *identityRepository) GetByType(userID int, typ models.IdentityType) (*models.Identity, error) {
	q := `SELECT ` + identityColumns + ` FROM auth_identities WHERE user_id=$1 AND type=$2`
	ident, err := scanIdentity(r.DB.QueryRow(q, userID, typ))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("identity get by type: %w", err)
	}
	return ident, nil
}

func (r *identityRepository) GetBySecret(typ models.IdentityType, secret string) (*models.Identity, error) {
	q := `SELECT ` + identityColumns + ` FROM auth_identities WHERE type=$1 AND secret=$2`
	ident, err := scanIdentity(r.DB.QueryRow(q, typ, secret))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("identity get by secret: %w", err)
	}
	return ident, nil
}

func (r *identityRepository) Delete(id int64) error {
	if _, err := r.DB.Exec(`DELETE FROM auth_identities WHERE id=$1`, id); err != nil {
		return fmt.Errorf("identity delete: %w", err)
	}
	return nil
}

func (r *identityRepository) ConsumeByID(id int64) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM auth_identities WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("identity consume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("identity consume: rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *identityRepository) ConsumeBySecret(typ models.IdentityType, secret string) (*models.Identity, error) {
	q := `DELETE FROM auth_identities WHERE type=$1 AND secret=$2 RETURNING ` + identityColumns
	ident, err := scanIdentity(r.DB.QueryRow(q, typ, secret))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("identity consume by secret: %w", err)
	}
	return ident, nil
}

func (r *identityRepository) GetByUserIDs(userIDs []int) (map[int][]*models.Identity, error) {
	if len(userIDs) == 0 {
		return map[int][]*models.Identity{}, nil
	}
	q := `SELECT ` + identityColumns + ` FROM auth_identities WHERE user_id = ANY($1) ORDER BY user_id, id`
	rows, err := r.DB.Query(q, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("identity get by user ids: %w", err)
	}
	defer rows.Close()

	grouped := make(map[int][]*models.Identity)
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("identity get by user ids: scan: %w", err)
		}
		grouped[ident.UserID] = append(grouped[ident.UserID], ident)
	}
	return grouped, rows.Err()
}
