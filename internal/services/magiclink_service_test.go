package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruhafzazahedi/shield/internal/models"
)

type magicFixture struct {
	svc        *MagicLinkService
	identities *memIdentityRepo
	users      *memUserRepo
	sessions   SessionService
	logins     *memLoginRepo
	email      *memEmail
}

func newMagicFixture(t *testing.T) *magicFixture {
	t.Helper()
	users := newMemUserRepo()
	identities := newMemIdentityRepo()
	sessions := NewSessionService(users)
	logins := &memLoginRepo{}
	email := &memEmail{}

	svc := NewMagicLinkService(identities, users, sessions, logins, dryGateway(), email, testAuthConfig())
	return &magicFixture{svc: svc, identities: identities, users: users, sessions: sessions, logins: logins, email: email}
}

func (f *magicFixture) issuedToken(t *testing.T, userID int) string {
	t.Helper()
	ident, err := f.identities.GetByType(userID, models.IdentityTypeMagicLink)
	require.NoError(t, err)
	require.NotNil(t, ident)
	return ident.Secret
}

func TestMagicLink_RequestUnknownPhone(t *testing.T) {
	f := newMagicFixture(t)

	err := f.svc.RequestLink("+70000000000")
	require.ErrorIs(t, err, ErrInvalidPhone)

	// для неизвестного телефона не создаётся никаких записей
	grouped, _ := f.identities.GetByUserIDs([]int{1, 2, 3})
	require.Empty(t, grouped)
}

func TestMagicLink_RequestCreatesToken(t *testing.T) {
	f := newMagicFixture(t)
	user := f.users.add(&models.User{Username: "u", Phone: "+77010001122", Email: "u@example.com", Active: true})

	require.NoError(t, f.svc.RequestLink(user.Phone))

	token := f.issuedToken(t, user.ID)
	require.Len(t, token, 40) // 20 байт в hex

	// письмо-дубль содержит токен в ссылке
	require.Len(t, f.email.magicURLs, 1)
	require.Contains(t, f.email.magicURLs[0], "?token="+token)

	// повторный запрос заменяет токен, активен ровно один
	require.NoError(t, f.svc.RequestLink(user.Phone))
	require.Equal(t, 1, f.identities.count(user.ID, models.IdentityTypeMagicLink))
	require.NotEqual(t, token, f.issuedToken(t, user.ID))
}

func TestMagicLink_RequestDeliveryFailure(t *testing.T) {
	users := newMemUserRepo()
	user := users.add(&models.User{Username: "u", Phone: "+77010001122", Active: true})
	cfg := testAuthConfig()
	svc := NewMagicLinkService(newMemIdentityRepo(), users, NewSessionService(users), &memLoginRepo{}, failingGateway(t), &memEmail{}, cfg)

	err := svc.RequestLink(user.Phone)
	var dErr *DeliveryError
	require.ErrorAs(t, err, &dErr)
	require.Equal(t, cfg.DeliveryFallback, dErr.Fallback)
}

func TestMagicLink_VerifyUnknownToken(t *testing.T) {
	f := newMagicFixture(t)
	sess := f.sessions.Start()

	_, err := f.svc.Verify(sess.ID, "deadbeef", ClientInfo{IP: "10.0.0.1"})
	require.ErrorIs(t, err, ErrTokenNotFound)

	require.Len(t, f.logins.attempts, 1)
	require.False(t, f.logins.attempts[0].Success)
	require.Equal(t, "10.0.0.1", f.logins.attempts[0].IPAddress)
	require.Nil(t, f.logins.attempts[0].UserID)
}

func TestMagicLink_VerifyExpiredTokenIsConsumed(t *testing.T) {
	f := newMagicFixture(t)
	user := f.users.add(&models.User{Username: "u", Phone: "+77010001122", Active: true})
	require.NoError(t, f.svc.RequestLink(user.Phone))
	token := f.issuedToken(t, user.ID)

	f.identities.expire(user.ID, models.IdentityTypeMagicLink)

	sess := f.sessions.Start()
	_, err := f.svc.Verify(sess.ID, token, ClientInfo{})
	require.ErrorIs(t, err, ErrLinkExpired)

	// запись снимается при поиске: истёкший токен тоже сожжён
	require.Zero(t, f.identities.count(user.ID, models.IdentityTypeMagicLink))

	_, err = f.svc.Verify(sess.ID, token, ClientInfo{})
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMagicLink_VerifySingleUse(t *testing.T) {
	f := newMagicFixture(t)
	user := f.users.add(&models.User{Username: "u", Phone: "+77010001122", Active: true})
	require.NoError(t, f.svc.RequestLink(user.Phone))
	token := f.issuedToken(t, user.ID)

	sess := f.sessions.Start()
	logged, err := f.svc.Verify(sess.ID, token, ClientInfo{IP: "10.0.0.5"})
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)

	state, _ := f.sessions.Get(sess.ID)
	require.True(t, state.MagicLogin)
	require.Equal(t, user.ID, state.UserID)

	// успех в журнале с привязкой к пользователю
	require.Len(t, f.logins.attempts, 1)
	require.True(t, f.logins.attempts[0].Success)
	require.NotNil(t, f.logins.attempts[0].UserID)
	require.Equal(t, user.ID, *f.logins.attempts[0].UserID)

	// вторая попытка тем же токеном
	_, err = f.svc.Verify(sess.ID, token, ClientInfo{})
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMagicLink_VerifyRedirectsToOutstandingAction(t *testing.T) {
	f := newMagicFixture(t)
	user := f.users.add(&models.User{Username: "u", Phone: "+77010001122", Active: false})
	require.NoError(t, f.svc.RequestLink(user.Phone))
	token := f.issuedToken(t, user.ID)

	sess := f.sessions.Start()
	_, err := f.svc.Verify(sess.ID, token, ClientInfo{})

	var aErr *ActionRequiredError
	require.ErrorAs(t, err, &aErr)
	require.Equal(t, models.IdentityTypePhoneActivate, aErr.Action)

	// пользователь ожидает действие в этой сессии
	pending, err := f.sessions.GetPendingUser(sess.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, pending.ID)

	// токен сожжён и здесь
	require.Zero(t, f.identities.count(user.ID, models.IdentityTypeMagicLink))
}
