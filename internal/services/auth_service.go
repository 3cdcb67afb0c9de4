package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ruhafzazahedi/shield/internal/config"
	"github.com/ruhafzazahedi/shield/internal/middleware"
	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
	"github.com/ruhafzazahedi/shield/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid phone or password")

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService — первичная проверка пароля и выпуск токенов после
// завершённого входа.
type AuthService interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) error
	IssueTokens(user *models.User) (*TokenPair, error)
	Refresh(oldToken string) (*TokenPair, *models.User, error)
}

type authService struct {
	users repositories.UserRepository
	cfg   config.AuthConfig
}

func NewAuthService(users repositories.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{users: users, cfg: cfg}
}

func (s *authService) HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *authService) CheckPassword(hash, plain string) error {
	if hash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *authService) IssueTokens(user *models.User) (*TokenPair, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.AccessTTL())),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := utils.GenerateToken(s.cfg.TokenBytes)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefresh(user.ID, refresh, time.Now().Add(s.cfg.RefreshTTL())); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) Refresh(oldToken string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetByRefreshToken(oldToken)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.RefreshToken == nil || user.RefreshExpiresAt == nil ||
		user.RefreshRevoked || time.Now().After(*user.RefreshExpiresAt) {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}
