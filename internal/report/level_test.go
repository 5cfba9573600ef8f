package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		phenotype string
		want      domain.AssessmentLevel
	}{
		{"Poor Metabolizer", domain.Toxic},
		{"Slow Acetylator", domain.Toxic},
		{"Ultrarapid Metabolizer", domain.Toxic},
		{"HLA-B*57:01 Positive", domain.Toxic},
		{"Intermediate Metabolizer", domain.AdjustDose},
		{"Decreased Function", domain.AdjustDose},
		{"Normal Metabolizer", domain.Safe},
		{"", domain.Safe},
	}

	for _, tt := range tests {
		t.Run(tt.phenotype, func(t *testing.T) {
			assert.Equal(t, tt.want, RiskLevel(tt.phenotype))
		})
	}
}
