package models

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Active   bool   `json:"active"`

	// Require2FA — при входе по паролю требуем код на телефон.
	Require2FA bool `json:"require_2fa"`

	// Phone и PasswordHash живут в auth_identities (type=password):
	// secret = телефон, secret2 = bcrypt-хэш. Сюда поднимаются join-ом.
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"` // не отдаём наружу

	Groups []string `json:"groups,omitempty"`

	// Identities заполняется только по явному запросу (ListUsers с флагом).
	Identities []*Identity `json:"identities,omitempty"`

	TelegramChatID int64      `json:"-"`
	LastActive     *time.Time `json:"last_active,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// refresh-хранение в БД
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
