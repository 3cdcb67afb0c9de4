package models

import "time"

// LoginAttempt — запись аудита, только вставка, никогда не меняется.
// Используется для наблюдаемости, не для решений об авторизации.
type LoginAttempt struct {
	ID         int64        `json:"id"`
	Type       IdentityType `json:"type"`
	Identifier string       `json:"identifier"`
	Success    bool         `json:"success"`
	IPAddress  string       `json:"ip_address"`
	UserAgent  string       `json:"user_agent"`
	UserID     *int         `json:"user_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
