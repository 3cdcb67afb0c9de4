package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/services"
)

type UserHandler struct {
	service services.UserService
}

type createUserRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone" binding:"required"`
	Password   string `json:"password" binding:"required,min=6"`
	Require2FA bool   `json:"require_2fa"`
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Регистрация
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        user  body      createUserRequest  true  "Новый пользователь"
// @Success      201   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Phone:      req.Phone,
		Require2FA: req.Require2FA,
	}
	if err := h.service.CreateUser(user, req.Password); err != nil {
		log.Printf("Register: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// @Summary      Пользователь по ID
// @Tags         Users
// @Produce      json
// @Param        id  path      int  true  "ID пользователя"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	user, err := h.service.GetUserByID(id)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Обновление пользователя
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "ID пользователя"
// @Param        user  body      models.User  true  "Изменённые поля"
// @Success      200   {object}  models.User
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	target, err := h.service.GetUserByID(id)
	if err != nil || target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var body models.User
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body.ID = id
	body.PasswordHash = target.PasswordHash // пароль меняется отдельным флоу

	if err := h.service.UpdateUser(&body); err != nil {
		log.Printf("UpdateUser: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	updated, _ := h.service.GetUserByID(id)
	c.JSON(http.StatusOK, updated)
}

// @Summary      Смена пароля
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "ID пользователя"
// @Success      200  {object}  map[string]string
// @Router       /users/{id}/password [put]
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// пароль можно менять только себе
	if callerID, ok := getIntFromCtx(c, "user_id"); !ok || callerID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdatePassword(id, req.Password); err != nil {
		log.Printf("UpdatePassword: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// @Summary      Удаление пользователя
// @Tags         Users
// @Produce      json
// @Param        id  path  int  true  "ID пользователя"
// @Success      200  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if err := h.service.DeleteUser(id); err != nil {
		log.Printf("DeleteUser: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary      Список пользователей
// @Description  with_identities=true дополняет каждого пользователя его записями идентичности
// @Tags         Users
// @Produce      json
// @Param        page             query  int     false  "Страница"
// @Param        limit            query  int     false  "Размер страницы"
// @Param        with_identities  query  bool    false  "Подтянуть идентичности"
// @Success      200  {array}  models.User
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	withIdentities := c.Query("with_identities") == "true"

	users, err := h.service.ListUsers(limit, offset, withIdentities)
	if err != nil {
		log.Printf("ListUsers: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Активация учётной записи
// @Tags         Users
// @Produce      json
// @Param        id  path  int  true  "ID пользователя"
// @Success      200  {object}  map[string]string
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if err := h.service.Activate(id); err != nil {
		log.Printf("Activate: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User activated"})
}

// @Summary      Деактивация учётной записи
// @Tags         Users
// @Produce      json
// @Param        id  path  int  true  "ID пользователя"
// @Success      200  {object}  map[string]string
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if err := h.service.Deactivate(id); err != nil {
		log.Printf("Deactivate: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated"})
}
