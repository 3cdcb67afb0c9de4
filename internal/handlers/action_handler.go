package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/services"
)

// ActionHandler обслуживает челленджи незавершённого входа: выдача кода
// и его проверка. Конкретное действие выбирается по состоянию пользователя,
// а не по параметру запроса.
type ActionHandler struct {
	sessions services.SessionService
	auth     services.AuthService
	actions  map[models.IdentityType]services.ChallengeAction
}

func NewActionHandler(
	sessions services.SessionService,
	auth services.AuthService,
	actions map[models.IdentityType]services.ChallengeAction,
) *ActionHandler {
	return &ActionHandler{sessions: sessions, auth: auth, actions: actions}
}

// resolve находит действие, которое должен пройти pending-пользователь.
func (h *ActionHandler) resolve(sessionID string) (services.ChallengeAction, error) {
	user, err := h.sessions.GetPendingUser(sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, services.ErrNoPendingLogin
	}
	typ, ok, err := h.sessions.HasAction(user.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.ErrNoPendingLogin
	}
	action, ok := h.actions[typ]
	if !ok {
		return nil, services.ErrNoPendingLogin
	}
	return action, nil
}

// @Summary      Выдача кода подтверждения
// @Description  Создаёт новый секрет для текущего действия и отправляет его на телефон
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /auth/action/issue [post]
func (h *ActionHandler) Issue(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Phone     string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.resolve(req.SessionID)
	if err != nil {
		log.Printf("[action][issue] resolve failed session=%s: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot get the pending login user"})
		return
	}

	if err := action.Issue(req.SessionID, strings.TrimSpace(req.Phone)); err != nil {
		var dErr *services.DeliveryError
		switch {
		case errors.Is(err, services.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		case errors.Is(err, services.ErrNoPhoneOnUser):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No phone number assigned to the account"})
		case errors.As(err, &dErr):
			log.Printf("[action][issue] delivery failed to=%s: %v", dErr.Destination, dErr.Err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":    "Failed to send the code",
				"fallback": dErr.Fallback,
			})
		case errors.Is(err, services.ErrNoPendingLogin):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot get the pending login user"})
		default:
			log.Printf("[action][issue] failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue the code"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Code sent", "action": string(action.Type())})
}

// @Summary      Проверка кода подтверждения
// @Description  Сверяет код, завершает отложенный вход и выдаёт токены
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /auth/action/verify [post]
func (h *ActionHandler) Verify(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Code      string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.resolve(req.SessionID)
	if err != nil {
		log.Printf("[action][verify] resolve failed session=%s: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot get the pending login user"})
		return
	}

	user, err := action.Verify(req.SessionID, strings.TrimSpace(req.Code), clientInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "The code has expired"})
		case errors.Is(err, services.ErrCodeInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid code"})
		case errors.Is(err, services.ErrNoPendingLogin):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot get the pending login user"})
		default:
			log.Printf("[action][verify] failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	tokens, err := h.auth.IssueTokens(user)
	if err != nil {
		log.Printf("[action][verify] issue tokens failed for userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	log.Printf("[action][verify] completed userID=%d action=%s", user.ID, action.Type())
	c.JSON(http.StatusOK, gin.H{"message": "Login completed", "user": user, "tokens": tokens})
}
