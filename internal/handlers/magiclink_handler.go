package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ruhafzazahedi/shield/internal/services"
)

type MagicLinkHandler struct {
	magic    *services.MagicLinkService
	sessions services.SessionService
	auth     services.AuthService
}

func NewMagicLinkHandler(
	magic *services.MagicLinkService,
	sessions services.SessionService,
	auth services.AuthService,
) *MagicLinkHandler {
	return &MagicLinkHandler{magic: magic, sessions: sessions, auth: auth}
}

// @Summary      Запрос magic-link
// @Description  Отправляет одноразовую ссылку для входа на телефон пользователя
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /auth/magic-link [post]
func (h *MagicLinkHandler) Request(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.magic.RequestLink(strings.TrimSpace(req.Phone)); err != nil {
		var dErr *services.DeliveryError
		switch {
		case errors.Is(err, services.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to find a user with that phone number"})
		case errors.As(err, &dErr):
			log.Printf("[magiclink][request] delivery failed to=%s: %v", dErr.Destination, dErr.Err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":    "Failed to send the magic link",
				"fallback": dErr.Fallback,
			})
		default:
			log.Printf("[magiclink][request] failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send the magic link"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Magic link sent"})
}

// @Summary      Проверка magic-link
// @Description  Одноразовая ссылка; токен уничтожается при первом обращении
// @Tags         Auth
// @Produce      json
// @Param        token  query     string  true  "Токен из ссылки"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Router       /auth/magic-link/verify [get]
func (h *MagicLinkHandler) Verify(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	sess := h.sessions.Start()
	user, err := h.magic.Verify(sess.ID, token, clientInfo(c))
	if err != nil {
		var aErr *services.ActionRequiredError
		switch {
		case errors.Is(err, services.ErrTokenNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to verify the magic link token"})
		case errors.Is(err, services.ErrLinkExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "The magic link has expired"})
		case errors.As(err, &aErr):
			// Ссылка принята, но вход отложен до прохождения челленджа.
			c.JSON(http.StatusOK, gin.H{
				"pending":    true,
				"action":     aErr.Action,
				"session_id": sess.ID,
			})
		default:
			log.Printf("[magiclink][verify] failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	tokens, err := h.auth.IssueTokens(user)
	if err != nil {
		log.Printf("[magiclink][verify] issue tokens failed for userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	log.Printf("[magiclink][verify] success userID=%d", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Login successful",
		"user":        user,
		"session_id":  sess.ID,
		"magic_login": true,
		"tokens":      tokens,
	})
}
