package risk

import (
	"strings"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// KeywordStrategy matches a phenotype keyword against lower-cased advice text.
type KeywordStrategy struct{}

// Keyword derives the search term for a phenotype. Rules apply in order:
//
//	"...metabolizer"  first word ("poor", "intermediate", "ultrarapid", ...)
//	"...positive"     "positive"
//	"...function"     "poor function" or "decreased", else the whole phenotype
//	"...deficient"    "deficien", matching deficient and deficiency
//	otherwise         the whole phenotype
//
// The result is lower case.
func Keyword(phenotype string) string {
	status := strings.ToLower(phenotype)

	switch {
	case strings.Contains(status, "metabolizer"):
		return strings.Fields(status)[0]
	case strings.Contains(status, "positive"):
		return "positive"
	case strings.Contains(status, "function"):
		if strings.Contains(status, "poor") {
			return "poor function"
		}
		if strings.Contains(status, "decreased") {
			return "decreased"
		}
		return status
	case strings.Contains(status, "deficient"):
		return "deficien"
	default:
		return status
	}
}

// Assess implements Strategy.
//
// No keyword match is Safe. A match for an intermediate phenotype is Adjust Dose.
// Every other match is Toxic, including phenotypes that are not poor, ultra or
// rapid (for example "normal" appearing in the advice).
func (KeywordStrategy) Assess(adviceText, phenotype string) domain.AssessmentLevel {
	advice := strings.ToLower(adviceText)
	status := strings.ToLower(phenotype)

	if !strings.Contains(advice, Keyword(phenotype)) {
		return domain.Safe
	}

	switch {
	case strings.Contains(status, "intermediate"):
		return domain.AdjustDose
	case strings.Contains(status, "poor"), strings.Contains(status, "ultra"), strings.Contains(status, "rapid"):
		return domain.Toxic
	default:
		return domain.Toxic
	}
}
