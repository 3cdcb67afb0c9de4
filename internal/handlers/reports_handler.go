package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ruhafzazahedi/shield/internal/services"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// @Summary      Журнал попыток входа
// @Tags         Reports
// @Produce      json
// @Param        limit  query  int  false  "Сколько записей вернуть"
// @Success      200  {array}  models.LoginAttempt
// @Router       /reports/logins [get]
func (h *ReportHandler) ListLoginAttempts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	attempts, err := h.Service.RecentAttempts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// @Summary      PDF-сводка попыток входа
// @Tags         Reports
// @Produce      application/pdf
// @Param        limit  query  int  false  "Сколько записей включить"
// @Success      200  {file}  binary
// @Router       /reports/logins.pdf [get]
func (h *ReportHandler) LoginReportPDF(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	data, err := h.Service.LoginReportPDF(limit)
	if err != nil {
		log.Printf("LoginReportPDF: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build the report"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="login_attempts.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
