package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/ruhafzazahedi/shield/internal/models"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateLoginReport(attempts []*models.LoginAttempt, generatedAt time.Time) ([]byte, error)
}

// ReportGenerator — реализация
type ReportGenerator struct {
	fontName string
}

func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{fontName: "Helvetica"}
}

// GenerateLoginReport строит сводку попыток входа, новые сверху.
func (g *ReportGenerator) GenerateLoginReport(attempts []*models.LoginAttempt, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Login Attempts Report", false)
	pdf.SetAuthor("Shield Auth", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "Login Attempts Report", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, "Generated at "+generatedAt.Format("02.01.2006 15:04"), "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	// ===== Шапка таблицы
	g.tableHeader(pdf)

	pdf.SetFont(g.fontName, "", 9)
	for _, a := range attempts {
		if pdf.GetY() > 265 {
			pdf.AddPage()
			g.tableHeader(pdf)
			pdf.SetFont(g.fontName, "", 9)
		}
		result := "FAIL"
		if a.Success {
			result = "OK"
		}
		pdf.CellFormat(32, 6, a.CreatedAt.Format("02.01.2006 15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 6, string(a.Type), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, g.clip(pdf, a.Identifier, 43), "1", 0, "L", false, 0, "")
		pdf.CellFormat(12, 6, result, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, a.IPAddress, "1", 0, "L", false, 0, "")
		userCol := "-"
		if a.UserID != nil {
			userCol = fmt.Sprintf("%d", *a.UserID)
		}
		pdf.CellFormat(33, 6, userCol, "1", 1, "L", false, 0, "")
	}

	if len(attempts) == 0 {
		pdf.CellFormat(0, 8, "No login attempts recorded", "1", 1, "C", false, 0, "")
	}

	// ===== Нумерация страниц
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render login report: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== helpers =====

func (g *ReportGenerator) tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont(g.fontName, "B", 9)
	pdf.CellFormat(32, 7, "Time", "1", 0, "L", false, 0, "")
	pdf.CellFormat(28, 7, "Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Identifier", "1", 0, "L", false, 0, "")
	pdf.CellFormat(12, 7, "Result", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "IP", "1", 0, "L", false, 0, "")
	pdf.CellFormat(33, 7, "User ID", "1", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(15, y, 195, y)
	pdf.SetY(y + 2)
}

func (g *ReportGenerator) clip(pdf *gofpdf.Fpdf, s string, width float64) string {
	for pdf.GetStringWidth(s) > width && len(s) > 3 {
		s = s[:len(s)-4] + "..."
	}
	return s
}
