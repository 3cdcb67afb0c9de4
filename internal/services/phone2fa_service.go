package services

import (
	"log"

	"github.com/ruhafzazahedi/shield/internal/config"
	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
	"github.com/ruhafzazahedi/shield/internal/utils"
)

// Phone2FAService — второй фактор: код на телефон после успешного пароля.
type Phone2FAService struct {
	identities repositories.IdentityRepository
	sessions   SessionService
	gateway    *utils.Client
	telegram   *TelegramService
	cfg        config.AuthConfig
}

func NewPhone2FAService(
	identities repositories.IdentityRepository,
	sessions SessionService,
	gateway *utils.Client,
	telegram *TelegramService,
	cfg config.AuthConfig,
) *Phone2FAService {
	return &Phone2FAService{
		identities: identities,
		sessions:   sessions,
		gateway:    gateway,
		telegram:   telegram,
		cfg:        cfg,
	}
}

func (s *Phone2FAService) Type() models.IdentityType { return models.IdentityTypePhone2FA }

// Issue создаёт код и отправляет его в шлюз. Требует pending-пользователя:
// без него сюда нельзя было попасть — это ошибка потока, не пользователя.
func (s *Phone2FAService) Issue(sessionID, phone string) error {
	user, err := s.sessions.GetPendingUser(sessionID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoPendingLogin
	}
	if phone == "" || phone != user.Phone {
		return ErrInvalidPhone
	}

	code, err := s.identities.CreateChallenge(
		user.ID, s.Type(), "login", "You must complete a two-factor verification.",
		repositories.SecretNumeric, s.cfg.CodeTTL(),
	)
	if err != nil {
		return err
	}

	if err := s.gateway.Send(user.Phone, utils.Param{Name: "Code", Value: code}); err != nil {
		return &DeliveryError{Destination: user.Phone, Fallback: s.cfg.DeliveryFallback, Err: err}
	}
	// Telegram — зеркальный канал, по возможности.
	s.telegram.MirrorCode(user.TelegramChatID, code)

	log.Printf("[2fa][issue] user_id=%d phone=%s", user.ID, user.Phone)
	return nil
}

// Verify сверяет присланный код. Несовпадение не трогает запись —
// пользователь может повторить ввод, пока код жив.
func (s *Phone2FAService) Verify(sessionID, submitted string, _ ClientInfo) (*models.User, error) {
	user, err := s.sessions.GetPendingUser(sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoPendingLogin
	}

	identity, err := s.identities.GetByType(user.ID, s.Type())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.CheckAction(identity, submitted); err != nil {
		return nil, err
	}

	// Одноразовость: удаляем атомарно, из двух конкурентных проверок
	// успех получит только одна.
	ok, err := s.identities.ConsumeByID(identity.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeInvalid
	}

	logged, err := s.sessions.CompleteLogin(sessionID)
	if err != nil {
		return nil, err
	}
	log.Printf("[2fa][verify] OK user_id=%d", logged.ID)
	return logged, nil
}
