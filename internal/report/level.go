package report

import (
	"strings"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// RiskLevel is the coarse per-gene label stored with saved profiles.
// It looks only at the phenotype, never at drug guidance.
func RiskLevel(phenotype string) domain.AssessmentLevel {
	p := strings.ToLower(phenotype)
	switch {
	case strings.Contains(p, "poor"), strings.Contains(p, "slow"),
		strings.Contains(p, "rapid"), strings.Contains(p, "positive"):
		return domain.Toxic
	case strings.Contains(p, "intermediate"), strings.Contains(p, "decreased"):
		return domain.AdjustDose
	default:
		return domain.Safe
	}
}
