package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/guideline"
)

func catalog() *guideline.Store {
	return guideline.NewStore(map[string]domain.DrugGuideline{
		"codeine": {
			GeneRef:     "CYP2D6",
			AdviceText:  strings.Repeat("a", 200),
			SourceLabel: "CPIC Guidelines",
		},
		"clopidogrel": {
			GeneRef:     "CYP2C19",
			AdviceText:  "Use an alternative antiplatelet agent.",
			SourceLabel: "CPIC Guidelines",
		},
		"ondansetron": {
			GeneRef:     "CYP2D6, CYP3A5",
			AdviceText:  "Consider an alternative antiemetic.",
			SourceLabel: "DPWG",
		},
		"warfarin": {
			GeneRef:     "See CPIC",
			AdviceText:  "Use a validated dosing algorithm.",
			SourceLabel: "CPIC Guidelines",
		},
	})
}

func TestRecommend(t *testing.T) {
	recs, sources := Recommend(findings(), catalog())

	require.Len(t, recs, 3)

	assert.Equal(t, "Codeine", recs[0].Drug)
	assert.Equal(t, "Avoid / Switch", recs[0].Action)
	assert.Equal(t, "CYP2D6 Poor Metabolizer detected. "+strings.Repeat("a", 150)+"...", recs[0].Reason)
	assert.Equal(t, "See Clinical Pharmacist for Alternatives", recs[0].Alternative)
	assert.Equal(t, "1A", recs[0].EvidenceLevel)

	assert.Equal(t, "Ondansetron", recs[1].Drug)
	assert.Equal(t, "Avoid / Switch", recs[1].Action)

	assert.Equal(t, "Clopidogrel", recs[2].Drug)
	assert.Equal(t, "Adjust Dose", recs[2].Action)
	assert.Equal(t, "CYP2C19 Ultrarapid Metabolizer detected. Use an alternative antiplatelet agent....", recs[2].Reason)

	assert.Equal(t, []string{"CPIC Guidelines", "DPWG"}, sources)
}

func TestRecommend_NoHighRisk(t *testing.T) {
	normal := []domain.GeneFinding{{Gene: "CYP2D6", Phenotype: "Normal Metabolizer"}}

	recs, sources := Recommend(normal, catalog())

	assert.Empty(t, recs)
	assert.Empty(t, sources)
}

func TestRecommend_FeedsBuild(t *testing.T) {
	recs, sources := Recommend(findings(), catalog())

	report := Build("p", findings(), recs, sources...)

	assert.Len(t, report.ClinicalRecommendation, 3)
	assert.Equal(t, "CPIC Guidelines v4.2; CPIC Guidelines; DPWG; FDA/EMA Drug Labels 2026.", report.Explanation.EvidenceCitation)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Codeine", capitalize("codeine"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Élan", capitalize("élan"))
}
