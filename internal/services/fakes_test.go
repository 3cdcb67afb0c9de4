package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ruhafzazahedi/shield/internal/config"
	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
	"github.com/ruhafzazahedi/shield/internal/utils"
)

// ---- in-memory fakes ----

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[int]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int]*models.User)}
}

func (m *memUserRepo) add(u *models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	u.ID = m.seq
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return u
}

func (m *memUserRepo) Create(u *models.User) error {
	m.add(u)
	return nil
}

func (m *memUserRepo) Update(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("user %d not found", u.ID)
	}
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memUserRepo) GetByPhone(phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) List(limit, offset int) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*models.User
	for i := 1; i <= m.seq; i++ {
		if u, ok := m.users[i]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (m *memUserRepo) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) Activate(userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Active = true
	}
	return nil
}

func (m *memUserRepo) Deactivate(userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Active = false
	}
	return nil
}

func (m *memUserRepo) UpdateLastActive(userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		t := time.Now()
		u.LastActive = &t
	}
	return nil
}

func (m *memUserRepo) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %d not found", userID)
	}
	u.RefreshToken = &token
	u.RefreshExpiresAt = &expiresAt
	u.RefreshRevoked = false
	return nil
}

func (m *memUserRepo) ClearRefresh(userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
		u.RefreshRevoked = true
	}
	return nil
}

func (m *memUserRepo) GetByRefreshToken(token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return u, nil
		}
	}
	return nil, nil
}

type memIdentityRepo struct {
	mu    sync.Mutex
	seq   int64
	items map[int64]*models.Identity
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{items: make(map[int64]*models.Identity)}
}

func (m *memIdentityRepo) CreateChallenge(userID int, typ models.IdentityType, name, extra string, strategy repositories.SecretStrategy, ttl time.Duration) (string, error) {
	var secret string
	var err error
	switch strategy {
	case repositories.SecretNumeric:
		secret, err = utils.GenerateCode(6, "0")
	case repositories.SecretToken:
		secret, err = utils.GenerateToken(20)
	default:
		return "", fmt.Errorf("unknown strategy %d", strategy)
	}
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ident := range m.items {
		if ident.UserID == userID && ident.Type == typ {
			delete(m.items, id)
		}
	}
	m.seq++
	expires := time.Now().Add(ttl)
	m.items[m.seq] = &models.Identity{
		ID: m.seq, UserID: userID, Type: typ, Secret: secret,
		Name: name, Extra: extra, Expires: &expires, CreatedAt: time.Now(),
	}
	return secret, nil
}

func (m *memIdentityRepo) DeleteByType(userID int, typ models.IdentityType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ident := range m.items {
		if ident.UserID == userID && ident.Type == typ {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *memIdentityRepo) GetByType(userID int, typ models.IdentityType) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ident := range m.items {
		if ident.UserID == userID && ident.Type == typ {
			return ident, nil
		}
	}
	return nil, nil
}

func (m *memIdentityRepo) GetBySecret(typ models.IdentityType, secret string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ident := range m.items {
		if ident.Type == typ && ident.Secret == secret {
			return ident, nil
		}
	}
	return nil, nil
}

func (m *memIdentityRepo) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memIdentityRepo) ConsumeByID(id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memIdentityRepo) ConsumeBySecret(typ models.IdentityType, secret string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ident := range m.items {
		if ident.Type == typ && ident.Secret == secret {
			delete(m.items, id)
			return ident, nil
		}
	}
	return nil, nil
}

func (m *memIdentityRepo) GetByUserIDs(userIDs []int) (map[int][]*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grouped := make(map[int][]*models.Identity)
	for _, ident := range m.items {
		for _, id := range userIDs {
			if ident.UserID == id {
				grouped[id] = append(grouped[id], ident)
			}
		}
	}
	return grouped, nil
}

// count возвращает число записей типа у пользователя.
func (m *memIdentityRepo) count(userID int, typ models.IdentityType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ident := range m.items {
		if ident.UserID == userID && ident.Type == typ {
			n++
		}
	}
	return n
}

// expire переводит все записи типа в просроченные.
func (m *memIdentityRepo) expire(userID int, typ models.IdentityType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	past := time.Now().Add(-time.Minute)
	for _, ident := range m.items {
		if ident.UserID == userID && ident.Type == typ {
			t := past
			ident.Expires = &t
		}
	}
}

type memLoginRepo struct {
	mu       sync.Mutex
	attempts []*models.LoginAttempt
}

func (m *memLoginRepo) RecordAttempt(a *models.LoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.attempts) + 1)
	a.CreatedAt = time.Now()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *memLoginRepo) ListRecent(limit int) ([]*models.LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*models.LoginAttempt
	for i := len(m.attempts) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, m.attempts[i])
	}
	return res, nil
}

type memEmail struct {
	mu        sync.Mutex
	welcome   []string
	magicURLs []string
}

func (m *memEmail) SendWelcomeEmail(email, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome = append(m.welcome, email)
	return nil
}

func (m *memEmail) SendMagicLinkEmail(email, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.magicURLs = append(m.magicURLs, url)
	return nil
}

// ---- gateways ----

func dryGateway() *utils.Client {
	return utils.NewClient("", "", 0, true)
}

// failingGateway отвечает 500 на любой запрос.
func failingGateway(t *testing.T) *utils.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return utils.NewClient(srv.URL, "test-key", 42, false)
}

func testAuthConfig() config.AuthConfig {
	cfg := config.AuthConfig{
		JWTSecret:        "test-secret",
		MagicLinkBaseURL: "http://localhost/auth/magic-link/verify",
	}
	cfg.ApplyDefaults()
	return cfg
}
