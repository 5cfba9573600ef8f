package report

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

const (
	actionAvoid       = "Avoid / Switch"
	actionAdjust      = "Adjust Dose"
	alternativeAdvice = "See Clinical Pharmacist for Alternatives"
	reasonAdviceRunes = 150
)

// Catalog is the subset of the guideline store used to build recommendations.
type Catalog interface {
	Drugs() []string
	Lookup(drug string) (domain.DrugGuideline, bool)
}

// Recommend emits one recommendation per (high-risk finding, drug) pair where
// the drug's gene reference names the finding's gene. Drugs are visited in
// catalog order. The returned sources are the distinct guideline source labels
// behind the recommendations, suitable as Build citations.
func Recommend(findings []domain.GeneFinding, catalog Catalog) ([]domain.DrugRecommendation, []string) {
	var (
		recs    []domain.DrugRecommendation
		sources []string
	)

	drugs := catalog.Drugs()
	for _, f := range HighRisk(findings) {
		for _, drug := range drugs {
			g, ok := catalog.Lookup(drug)
			if !ok || !namesGene(g.GeneRef, f.Gene) {
				continue
			}

			recs = append(recs, domain.DrugRecommendation{
				Drug:          capitalize(drug),
				Action:        action(f.Phenotype),
				Reason:        fmt.Sprintf("%s %s detected. %s...", f.Gene, f.Phenotype, truncate(g.AdviceText, reasonAdviceRunes)),
				Alternative:   alternativeAdvice,
				EvidenceLevel: defaultEvidenceLevel,
			})

			if g.SourceLabel != "" && !contains(sources, g.SourceLabel) {
				sources = append(sources, g.SourceLabel)
			}
		}
	}

	return recs, sources
}

// namesGene reports whether a comma separated gene reference lists gene.
func namesGene(ref, gene string) bool {
	for _, g := range strings.Split(ref, ",") {
		if strings.TrimSpace(g) == gene {
			return true
		}
	}
	return false
}

func action(phenotype string) string {
	if strings.Contains(strings.ToLower(phenotype), "poor") {
		return actionAvoid
	}
	return actionAdjust
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
