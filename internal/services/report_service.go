package services

import (
	"fmt"

	"github.com/ruhafzazahedi/shield/internal/models"
	"github.com/ruhafzazahedi/shield/internal/pdf"
	"github.com/ruhafzazahedi/shield/internal/repositories"
)

// ReportService собирает сводки по журналу входов.
type ReportService struct {
	logins repositories.LoginRepository
	pdfGen pdf.Generator
}

func NewReportService(logins repositories.LoginRepository, pdfGen pdf.Generator) *ReportService {
	return &ReportService{logins: logins, pdfGen: pdfGen}
}

func (s *ReportService) RecentAttempts(limit int) ([]*models.LoginAttempt, error) {
	if limit < 1 {
		limit = 100
	}
	attempts, err := s.logins.ListRecent(limit)
	if err != nil {
		return nil, fmt.Errorf("list login attempts: %w", err)
	}
	return attempts, nil
}

func (s *ReportService) LoginReportPDF(limit int) ([]byte, error) {
	attempts, err := s.RecentAttempts(limit)
	if err != nil {
		return nil, err
	}
	return s.pdfGen.GenerateLoginReport(attempts, timeNow())
}
