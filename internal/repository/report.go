package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// defaultListLimit applies when ListReports is called without a positive limit.
const defaultListLimit = 50

// ReportRepository stores generated patient reports as JSONB documents.
type ReportRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool, logger *logrus.Logger) *ReportRepository {
	return &ReportRepository{
		db:  db,
		log: logger,
	}
}

// SaveReport inserts a report and returns its generated ID.
func (r *ReportRepository) SaveReport(ctx context.Context, report *domain.PatientReport) (string, error) {
	doc, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO patient_reports (id, patient_id, overall_risk_score, high_risk_count, report)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.Exec(ctx, query,
		id,
		report.PatientID,
		report.RiskAssessment.OverallRiskScore,
		report.RiskAssessment.HighRiskVariantsCount,
		doc,
	)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": report.PatientID,
			"error":      err,
		}).Error("Failed to save report")
		return "", fmt.Errorf("saving report: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"report_id":  id,
		"patient_id": report.PatientID,
		"risk_score": report.RiskAssessment.OverallRiskScore,
	}).Info("Report saved successfully")

	return id.String(), nil
}

// GetReport retrieves a report by its ID
func (r *ReportRepository) GetReport(ctx context.Context, id string) (*domain.PatientReport, error) {
	reportID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("report %q: %w", id, domain.ErrNotFound)
	}

	var doc []byte
	err = r.db.QueryRow(ctx, `SELECT report FROM patient_reports WHERE id = $1`, reportID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"report_id": id,
			"error":     err,
		}).Error("Failed to get report by ID")
		return nil, fmt.Errorf("getting report by ID: %w", err)
	}

	return decodeReport(doc)
}

// ListReports returns a patient's reports, newest first.
func (r *ReportRepository) ListReports(ctx context.Context, patientID string, limit int) ([]*domain.PatientReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT report FROM patient_reports
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, patientID, limit)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list reports")
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.PatientReport
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		report, err := decodeReport(doc)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func decodeReport(doc []byte) (*domain.PatientReport, error) {
	var report domain.PatientReport
	if err := json.Unmarshal(doc, &report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &report, nil
}
