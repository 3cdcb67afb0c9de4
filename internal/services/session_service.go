package services

import (
	"crypto/subtle"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
)

// Session — состояние одной браузерной сессии аутентификации.
// PendingUserID: прошёл пароль, но не прошёл вторичную проверку.
type Session struct {
	ID            string
	PendingUserID int
	UserID        int // полностью аутентифицированный пользователь
	MagicLogin    bool
	CreatedAt     time.Time
}

type SessionService interface {
	Start() *Session
	Get(sessionID string) (*Session, bool)

	// SetPendingUser привязывает ожидающего пользователя к сессии; прежний
	// pending заменяется. Другие сессии состояние не видят.
	SetPendingUser(sessionID string, user *models.User)
	GetPendingUser(sessionID string) (*models.User, error)

	// HasAction — есть ли у пользователя незавершённое обязательное
	// действие (активация важнее 2FA).
	HasAction(userID int) (models.IdentityType, bool, error)

	// CompleteLogin переводит сессию из pending в аутентифицированную.
	CompleteLogin(sessionID string) (*models.User, error)

	// LoginByID — прямой вход (magic-link), минуя pending-состояние.
	LoginByID(sessionID string, userID int, magicLogin bool) (*models.User, error)

	// CheckAction — сверка присланного значения с challenge-identity.
	// Истечение срока классифицируется раньше несовпадения.
	CheckAction(identity *models.Identity, submitted string) error

	Clear(sessionID string)
}

type sessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	users    repositories.UserRepository
}

func NewSessionService(users repositories.UserRepository) SessionService {
	return &sessionService{
		sessions: make(map[string]*Session),
		users:    users,
	}
}

func (s *sessionService) Start() *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *sessionService) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

func (s *sessionService) SetPendingUser(sessionID string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &Session{ID: sessionID, CreatedAt: time.Now()}
		s.sessions[sessionID] = sess
	}
	sess.PendingUserID = user.ID
	sess.UserID = 0
}

func (s *sessionService) GetPendingUser(sessionID string) (*models.User, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || sess.PendingUserID == 0 {
		return nil, nil
	}
	return s.users.GetByID(sess.PendingUserID)
}

func (s *sessionService) HasAction(userID int) (models.IdentityType, bool, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", false, err
	}
	if user == nil {
		return "", false, nil
	}
	if !user.Active {
		return models.IdentityTypePhoneActivate, true, nil
	}
	if user.Require2FA {
		return models.IdentityTypePhone2FA, true, nil
	}
	return "", false, nil
}

func (s *sessionService) CompleteLogin(sessionID string) (*models.User, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.PendingUserID == 0 {
		s.mu.Unlock()
		return nil, ErrNoPendingLogin
	}
	userID := sess.PendingUserID
	sess.UserID = userID
	sess.PendingUserID = 0
	s.mu.Unlock()

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastActive(userID); err != nil {
		log.Printf("[session][complete] update last_active failed: user_id=%d err=%v", userID, err)
	}
	log.Printf("[session][complete] login completed: session=%s user_id=%d", sessionID, userID)
	return user, nil
}

func (s *sessionService) LoginByID(sessionID string, userID int, magicLogin bool) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &Session{ID: sessionID, CreatedAt: time.Now()}
		s.sessions[sessionID] = sess
	}
	sess.UserID = userID
	sess.PendingUserID = 0
	sess.MagicLogin = magicLogin
	s.mu.Unlock()

	if err := s.users.UpdateLastActive(userID); err != nil {
		log.Printf("[session][login-by-id] update last_active failed: user_id=%d err=%v", userID, err)
	}
	return user, nil
}

func (s *sessionService) CheckAction(identity *models.Identity, submitted string) error {
	if identity == nil {
		return ErrCodeInvalid
	}
	// Срок проверяем первым: протухший код — это "истёк", даже если
	// присланное значение совпадает с хранимым.
	if identity.Expired(timeNow()) {
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(identity.Secret), []byte(submitted)) != 1 {
		return ErrCodeInvalid
	}
	return nil
}

func (s *sessionService) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}
