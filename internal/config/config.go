package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type SMSGatewayConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TemplateID int    `yaml:"template_id"`
	DryRun     bool   `yaml:"dry_run"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Enabled  bool   `yaml:"enabled"`
}

// AuthConfig — всё, что нужно челленджам: TTL, алфавит кода, magic-link.
// TTL задаются в секундах (yaml.v3 не понимает "5m").
type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	AccessTTLSeconds  int    `yaml:"access_ttl_seconds"`
	RefreshTTLSeconds int    `yaml:"refresh_ttl_seconds"`

	CodeLength       int    `yaml:"code_length"`
	CodeExcludeDigit string `yaml:"code_exclude_digit"`
	CodeTTLSeconds   int    `yaml:"code_ttl_seconds"`

	MagicLinkTTLSeconds int    `yaml:"magic_link_ttl_seconds"`
	MagicLinkBaseURL    string `yaml:"magic_link_base_url"`
	TokenBytes          int    `yaml:"token_bytes"`

	// DeliveryFallback — куда отправлять пользователя, если шлюз доставки
	// вернул ошибку (альтернативный канал входа).
	DeliveryFallback string `yaml:"delivery_fallback"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	SMS      SMSGatewayConfig `yaml:"sms"`
	Telegram TelegramConfig   `yaml:"telegram"`
	Auth     AuthConfig       `yaml:"auth"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	cfg.Auth.ApplyDefaults()
	return &cfg
}

// ApplyDefaults проставляет рабочие значения для незаполненных полей.
func (a *AuthConfig) ApplyDefaults() {
	if a.AccessTTLSeconds <= 0 {
		a.AccessTTLSeconds = int((15 * time.Minute).Seconds())
	}
	if a.RefreshTTLSeconds <= 0 {
		a.RefreshTTLSeconds = int((30 * 24 * time.Hour).Seconds())
	}
	if a.CodeLength <= 0 {
		a.CodeLength = 6
	}
	if a.CodeExcludeDigit == "" {
		a.CodeExcludeDigit = "0" // политика "nozero": без нулей, чтобы не путать
	}
	if a.CodeTTLSeconds <= 0 {
		a.CodeTTLSeconds = int((5 * time.Minute).Seconds())
	}
	if a.MagicLinkTTLSeconds <= 0 {
		a.MagicLinkTTLSeconds = int(time.Hour.Seconds())
	}
	if a.TokenBytes <= 0 {
		a.TokenBytes = 32
	}
	if a.DeliveryFallback == "" {
		a.DeliveryFallback = "/auth/magic-link"
	}
}

func (a *AuthConfig) AccessTTL() time.Duration  { return time.Duration(a.AccessTTLSeconds) * time.Second }
func (a *AuthConfig) RefreshTTL() time.Duration { return time.Duration(a.RefreshTTLSeconds) * time.Second }
func (a *AuthConfig) CodeTTL() time.Duration    { return time.Duration(a.CodeTTLSeconds) * time.Second }
func (a *AuthConfig) MagicLinkTTL() time.Duration {
	return time.Duration(a.MagicLinkTTLSeconds) * time.Second
}
