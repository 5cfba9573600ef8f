package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/report"
)

// GenerateReport builds the patient report for findings. When a repository is
// configured the report is persisted; a configured cache is written best-effort.
func (s *AnalysisService) GenerateReport(ctx context.Context, patientID string, findings []domain.GeneFinding) (*domain.PatientReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recs, sources := report.Recommend(findings, s.guidelines)
	rep := report.Build(patientID, findings, recs, sources...)

	logger := s.logger.WithFields(logrus.Fields{
		"patient_id":      patientID,
		"recommendations": len(rep.ClinicalRecommendation),
		"risk_score":      rep.RiskAssessment.OverallRiskScore,
	})

	if s.reports != nil {
		id, err := s.reports.SaveReport(ctx, rep)
		if err != nil {
			return nil, fmt.Errorf("failed to save report: %w", err)
		}
		logger = logger.WithField("report_id", id)
	}

	if s.cache != nil {
		if err := s.cache.SetReport(ctx, rep); err != nil && !errors.Is(err, domain.ErrCacheDisabled) {
			logger.WithError(err).Warn("Failed to cache report")
		}
	}

	logger.Info("Patient report generated")
	return rep, nil
}

// LatestReport returns the most recent report for a patient, trying the cache
// before the repository. It returns domain.ErrNotFound when neither has one.
func (s *AnalysisService) LatestReport(ctx context.Context, patientID string) (*domain.PatientReport, error) {
	if s.cache != nil {
		rep, ok, err := s.cache.GetReport(ctx, patientID)
		switch {
		case err != nil && !errors.Is(err, domain.ErrCacheDisabled):
			s.logger.WithError(err).WithField("patient_id", patientID).Warn("Report cache lookup failed")
		case ok:
			return rep, nil
		}
	}

	if s.reports == nil {
		return nil, fmt.Errorf("no stored report for patient %s: %w", patientID, domain.ErrNotFound)
	}

	reports, err := s.reports.ListReports(ctx, patientID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no stored report for patient %s: %w", patientID, domain.ErrNotFound)
	}
	return reports[0], nil
}
