package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ruhafzazahedi/shield/internal/models"
)

// подменяется в тестах
var timeNow = time.Now

// ClientInfo — адрес и агент входящего запроса, нужен журналу попыток.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// ChallengeAction — закрытый набор вторичных проверок (2FA-код, код
// активации, magic-link), диспетчеризуемых через один интерфейс.
type ChallengeAction interface {
	// Issue создаёт challenge-identity и передаёт секрет в канал доставки.
	Issue(sessionID, phone string) error
	// Verify сверяет присланное значение; при успехе возвращает
	// залогиненного пользователя.
	Verify(sessionID, submitted string, client ClientInfo) (*models.User, error)
	Type() models.IdentityType
}

// Ошибки потока (фатальные, программные): действие вызвано вне
// последовательности. Никогда не гасим молча.
var (
	ErrNoPendingLogin = errors.New("cannot get the pending login user")
	ErrNoPhoneOnUser  = errors.New("phone challenge needs a user phone on record")
)

// Ожидаемые, пользовательские ошибки.
var (
	ErrInvalidPhone  = errors.New("unable to verify the phone matches the phone on record")
	ErrCodeInvalid   = errors.New("the code was incorrect")
	ErrCodeExpired   = errors.New("the code has expired, request a new one")
	ErrTokenNotFound = errors.New("unable to verify the link")
	ErrLinkExpired   = errors.New("sorry, the link has expired")
)

// DeliveryError — шлюз доставки вернул неуспех. Состояние действия не
// продвигается; Fallback подсказывает презентационному слою альтернативный
// маршрут входа.
type DeliveryError struct {
	Destination string
	Fallback    string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("unable to send the code to %q: %v", e.Destination, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// ActionRequiredError — magic-link привёл к пользователю, у которого ещё
// есть незавершённое действие; поток перенаправляется в него.
type ActionRequiredError struct {
	Action models.IdentityType
}

func (e *ActionRequiredError) Error() string {
	return fmt.Sprintf("outstanding auth action required: %s", e.Action)
}
