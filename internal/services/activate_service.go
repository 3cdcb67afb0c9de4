package services

import (
	"log"

	"github.com/ruhafzazahedi/shield/internal/config"
	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
	"github.com/ruhafzazahedi/shield/internal/utils"
)

// PhoneActivateService — активация аккаунта кодом на телефон после
// регистрации.
type PhoneActivateService struct {
	identities repositories.IdentityRepository
	sessions   SessionService
	users      repositories.UserRepository
	gateway    *utils.Client
	telegram   *TelegramService
	cfg        config.AuthConfig
}

func NewPhoneActivateService(
	identities repositories.IdentityRepository,
	sessions SessionService,
	users repositories.UserRepository,
	gateway *utils.Client,
	telegram *TelegramService,
	cfg config.AuthConfig,
) *PhoneActivateService {
	return &PhoneActivateService{
		identities: identities,
		sessions:   sessions,
		users:      users,
		gateway:    gateway,
		telegram:   telegram,
		cfg:        cfg,
	}
}

func (s *PhoneActivateService) Type() models.IdentityType { return models.IdentityTypePhoneActivate }

func (s *PhoneActivateService) Issue(sessionID, phone string) error {
	user, err := s.sessions.GetPendingUser(sessionID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoPendingLogin
	}
	if user.Phone == "" {
		return ErrNoPhoneOnUser
	}

	code, err := s.identities.CreateChallenge(
		user.ID, s.Type(), "register", "Check your phone to complete account activation.",
		repositories.SecretNumeric, s.cfg.CodeTTL(),
	)
	if err != nil {
		return err
	}

	if err := s.gateway.Send(user.Phone, utils.Param{Name: "Code", Value: code}); err != nil {
		return &DeliveryError{Destination: user.Phone, Fallback: s.cfg.DeliveryFallback, Err: err}
	}
	s.telegram.MirrorCode(user.TelegramChatID, code)

	log.Printf("[activate][issue] user_id=%d phone=%s", user.ID, user.Phone)
	return nil
}

func (s *PhoneActivateService) Verify(sessionID, submitted string, _ ClientInfo) (*models.User, error) {
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

	ok, err := s.identities.ConsumeByID(identity.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeInvalid
	}

	// Код верен — активируем аккаунт и завершаем отложенный вход.
	if err := s.users.Activate(user.ID); err != nil {
		return nil, err
	}

	logged, err := s.sessions.CompleteLogin(sessionID)
	if err != nil {
		return nil, err
	}
	log.Printf("[activate][verify] OK user_id=%d", logged.ID)
	return logged, nil
}
