package models

import "time"

// IdentityType enumerates the purposes a stored secret can serve.
type IdentityType string

const (
	IdentityTypePassword      IdentityType = "password"
	IdentityTypePhone2FA      IdentityType = "phone_2fa"
	IdentityTypePhoneActivate IdentityType = "phone_activate"
	IdentityTypeMagicLink     IdentityType = "magic_link"
)

// Identity — один секрет, привязанный к пользователю для одной цели.
// Для password: Secret = телефон (ключ входа), Secret2 = bcrypt-хэш.
// Для челленджей (2FA/активация/magic-link): Secret = код или токен,
// Expires обязателен, запись удаляется при успешной проверке.
type Identity struct {
	ID        int64        `json:"id"`
	UserID    int          `json:"user_id"`
	Type      IdentityType `json:"type"`
	Secret    string       `json:"-"`
	Secret2   string       `json:"-"`
	Name      string       `json:"name,omitempty"`
	Extra     string       `json:"extra,omitempty"`
	Expires   *time.Time   `json:"expires,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Expired reports whether the identity is past its expiry.
// Expires == nil means the identity never expires (password credential).
func (i *Identity) Expired(now time.Time) bool {
	return i.Expires != nil && now.After(*i.Expires)
}
