package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/repositories"
	"github.com/ruhafzazahedi/shield/internal/services"
)

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
	sessions    services.SessionService
	logins      repositories.LoginRepository
}

func NewAuthHandler(
	userService services.UserService,
	authService services.AuthService,
	sessions services.SessionService,
	logins repositories.LoginRepository,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		sessions:    sessions,
		logins:      logins,
	}
}

// @Summary      Вход по телефону и паролю
// @Description  Первичная аутентификация; при незавершённом действии возвращает pending-сессию
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	phone := strings.TrimSpace(req.Phone)
	log.Printf("[auth][login] attempt phone=%q", phone)

	user, err := h.userService.GetUserByPhone(phone)
	if err != nil || user == nil {
		log.Printf("[auth][login] user not found by phone=%q: err=%v", phone, err)
		h.recordAttempt(c, phone, false, nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or password"})
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)); err != nil {
		log.Printf("[auth][login] password mismatch for userID=%d", user.ID)
		h.recordAttempt(c, phone, false, nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid phone or password"})
		return
	}

	sess := h.sessions.Start()

	// Обязательное действие? Пароль принят, но вход отложен до
	// прохождения челленджа.
	if action, ok, err := h.sessions.HasAction(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	} else if ok {
		h.sessions.SetPendingUser(sess.ID, user)
		log.Printf("[auth][login] pending action=%s userID=%d session=%s", action, user.ID, sess.ID)
		c.JSON(http.StatusOK, gin.H{
			"pending":    true,
			"action":     action,
			"session_id": sess.ID,
		})
		return
	}

	if _, err := h.sessions.LoginByID(sess.ID, user.ID, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	tokens, err := h.authService.IssueTokens(user)
	if err != nil {
		log.Printf("[auth][login] issue tokens failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}
	h.recordAttempt(c, phone, true, &user.ID)

	log.Printf("[auth][login] success userID=%d", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user":       user,
		"session_id": sess.ID,
		"tokens":     tokens,
	})
}

// @Summary      Обновление пары токенов
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, user, err := h.authService.Refresh(strings.TrimSpace(req.RefreshToken))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}

// @Summary      Выход
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.SessionID != "" {
		h.sessions.Clear(req.SessionID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// журнал попыток — fire-and-forget
func (h *AuthHandler) recordAttempt(c *gin.Context, identifier string, success bool, userID *int) {
	if h.logins == nil {
		return
	}
	info := clientInfo(c)
	err := h.logins.RecordAttempt(&models.LoginAttempt{
		Type:       models.IdentityTypePassword,
		Identifier: identifier,
		Success:    success,
		IPAddress:  info.IP,
		UserAgent:  info.UserAgent,
		UserID:     userID,
	})
	if err != nil {
		log.Printf("[auth][audit] record attempt failed: %v", err)
	}
}
