package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ruhafzazahedi/shield/internal/models"
)

func newActivateFixture(t *testing.T, phone string) (*PhoneActivateService, *memIdentityRepo, *memUserRepo, SessionService, *models.User, string) {
	t.Helper()
	users := newMemUserRepo()
	user := users.add(&models.User{Username: "fresh", Phone: phone, Active: false})

	identities := newMemIdentityRepo()
	sessions := NewSessionService(users)
	sess := sessions.Start()
	sessions.SetPendingUser(sess.ID, user)

	svc := NewPhoneActivateService(identities, sessions, users, dryGateway(), nil, testAuthConfig())
	return svc, identities, users, sessions, user, sess.ID
}

func TestActivate_IssueNeedsPhoneOnRecord(t *testing.T) {
	svc, _, _, _, _, sessID := newActivateFixture(t, "")

	err := svc.Issue(sessID, "")
	require.ErrorIs(t, err, ErrNoPhoneOnUser)
}

func TestActivate_IssueWithoutPendingLogin(t *testing.T) {
	users := newMemUserRepo()
	sessions := NewSessionService(users)
	svc := NewPhoneActivateService(newMemIdentityRepo(), sessions, users, dryGateway(), nil, testAuthConfig())

	sess := sessions.Start()
	require.ErrorIs(t, svc.Issue(sess.ID, "+77010001122"), ErrNoPendingLogin)
}

func TestActivate_IssueCreatesRegisterChallenge(t *testing.T) {
	svc, identities, _, _, user, sessID := newActivateFixture(t, "+77010001122")

	require.NoError(t, svc.Issue(sessID, user.Phone))

	ident, err := identities.GetByType(user.ID, models.IdentityTypePhoneActivate)
	require.NoError(t, err)
	require.NotNil(t, ident)
	require.Equal(t, "register", ident.Name)
	require.Len(t, ident.Secret, 6)
}

func TestActivate_VerifyActivatesAndLogsIn(t *testing.T) {
	svc, identities, users, sessions, user, sessID := newActivateFixture(t, "+77010001122")
	require.NoError(t, svc.Issue(sessID, user.Phone))

	ident, err := identities.GetByType(user.ID, models.IdentityTypePhoneActivate)
	require.NoError(t, err)

	logged, err := svc.Verify(sessID, ident.Secret, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)

	stored, _ := users.GetByID(user.ID)
	require.True(t, stored.Active)

	require.Zero(t, identities.count(user.ID, models.IdentityTypePhoneActivate))

	sess, _ := sessions.Get(sessID)
	require.Equal(t, user.ID, sess.UserID)
}

func TestActivate_VerifyWrongCodeLeavesInactive(t *testing.T) {
	svc, identities, users, _, user, sessID := newActivateFixture(t, "+77010001122")
	require.NoError(t, svc.Issue(sessID, user.Phone))

	// код не содержит нулей, совпадение исключено
	_, err := svc.Verify(sessID, "000000", ClientInfo{})
	require.ErrorIs(t, err, ErrCodeInvalid)

	stored, _ := users.GetByID(user.ID)
	require.False(t, stored.Active)
	require.Equal(t, 1, identities.count(user.ID, models.IdentityTypePhoneActivate))
}
