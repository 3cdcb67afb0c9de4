package services

import (
	"log"

	"github.com/ruhafzazahedi/shield/internal/config"
	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
	"github.com/ruhafzazahedi/shield/internal/utils"
)

// MagicLinkService — беспарольный вход по одноразовой ссылке. В отличие от
// кодовых действий, ссылку может запросить неаутентифицированный посетитель,
// а проверка ищет запись по самому секрету (пользователь ещё неизвестен).
type MagicLinkService struct {
	identities repositories.IdentityRepository
	users      repositories.UserRepository
	sessions   SessionService
	logins     repositories.LoginRepository
	gateway    *utils.Client
	email      EmailService
	cfg        config.AuthConfig
}

func NewMagicLinkService(
	identities repositories.IdentityRepository,
	users repositories.UserRepository,
	sessions SessionService,
	logins repositories.LoginRepository,
	gateway *utils.Client,
	email EmailService,
	cfg config.AuthConfig,
) *MagicLinkService {
	return &MagicLinkService{
		identities: identities,
		users:      users,
		sessions:   sessions,
		logins:     logins,
		gateway:    gateway,
		email:      email,
		cfg:        cfg,
	}
}

func (s *MagicLinkService) Type() models.IdentityType { return models.IdentityTypeMagicLink }

// Issue — pending-состояние не требуется: достаточно телефона.
func (s *MagicLinkService) Issue(_ string, phone string) error {
	return s.RequestLink(phone)
}

// RequestLink создаёт токен и отправляет ссылку на вход. Для неизвестного
// телефона — ошибка без создания каких-либо записей.
func (s *MagicLinkService) RequestLink(phone string) error {
	user, err := s.users.GetByPhone(phone)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidPhone
	}

	token, err := s.identities.CreateChallenge(
		user.ID, s.Type(), "login", "",
		repositories.SecretToken, s.cfg.MagicLinkTTL(),
	)
	if err != nil {
		return err
	}
	url := s.cfg.MagicLinkBaseURL + "?token=" + token

	if err := s.gateway.Send(user.Phone, utils.Param{Name: "Code", Value: url}); err != nil {
		return &DeliveryError{Destination: user.Phone, Fallback: s.cfg.DeliveryFallback, Err: err}
	}
	// Дублируем ссылку письмом, если у пользователя есть почта.
	if user.Email != "" && s.email != nil {
		if err := s.email.SendMagicLinkEmail(user.Email, url); err != nil {
			log.Printf("[magic-link][issue] email mirror failed: user_id=%d err=%v", user.ID, err)
		}
	}

	log.Printf("[magic-link][issue] user_id=%d phone=%s", user.ID, user.Phone)
	return nil
}

// Verify проверяет токен из ссылки. Найденная запись удаляется сразу при
// поиске, до любых проверок: повторное использование токена невозможно,
// даже если он уже истёк.
func (s *MagicLinkService) Verify(sessionID, token string, client ClientInfo) (*models.User, error) {
	identity, err := s.identities.ConsumeBySecret(s.Type(), token)
	if err != nil {
		return nil, err
	}

	if identity == nil {
		s.recordAttempt(token, false, nil, client)
		log.Printf("[magic-link][verify] failed login: token not found")
		return nil, ErrTokenNotFound
	}

	if identity.Expired(timeNow()) {
		s.recordAttempt(token, false, nil, client)
		log.Printf("[magic-link][verify] failed login: token expired user_id=%d", identity.UserID)
		return nil, ErrLinkExpired
	}

	// Токен валиден, но у пользователя может оставаться обязательное
	// действие (активация, 2FA) — переводим поток в него.
	if action, ok, err := s.sessions.HasAction(identity.UserID); err != nil {
		return nil, err
	} else if ok {
		user, err := s.users.GetByID(identity.UserID)
		if err != nil {
			return nil, err
		}
		s.sessions.SetPendingUser(sessionID, user)
		return nil, &ActionRequiredError{Action: action}
	}

	user, err := s.sessions.LoginByID(sessionID, identity.UserID, true)
	if err != nil {
		return nil, err
	}
	s.recordAttempt(token, true, &user.ID, client)
	log.Printf("[magic-link][verify] magic login: user_id=%d", user.ID)
	return user, nil
}

// recordAttempt — аудит fire-and-forget: сбой журнала не роняет вход.
func (s *MagicLinkService) recordAttempt(identifier string, success bool, userID *int, client ClientInfo) {
	if s.logins == nil {
		return
	}
	attempt := &models.LoginAttempt{
		Type:       s.Type(),
		Identifier: identifier,
		Success:    success,
		IPAddress:  client.IP,
		UserAgent:  client.UserAgent,
		UserID:     userID,
	}
	if err := s.logins.RecordAttempt(attempt); err != nil {
		log.Printf("[magic-link][audit] record attempt failed: %v", err)
	}
}
