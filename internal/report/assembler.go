// Package report assembles the patient-facing pharmacogenomic report from
// resolved gene findings and drug recommendations.
package report

import (
	"fmt"
	"strings"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

const (
	// MaxRecommendations caps the clinical recommendation list.
	MaxRecommendations = 5

	// BaseCitation always leads the evidence citation.
	BaseCitation = "CPIC Guidelines v4.2"

	defaultEvidenceLevel = "1A"
	profileConfidence    = 0.98
	labelsCitation       = "FDA/EMA Drug Labels 2026."
)

// Quality metrics are fixed strings; nothing measures them.
var staticQuality = domain.QualityMetrics{
	AnnotationQuality: "High (ClinPGx Integrated)",
	DatabaseCertainty: "99.4%",
}

// standardRecommendation stands in when no drug recommendation survives.
var standardRecommendation = domain.DrugRecommendation{
	Drug:   "Standard Medications",
	Action: "Standard Dosage",
	Reason: "No high-risk genetic variants detected for primary metabolic pathways.",
}

// RiskScore is min(100, highRiskCount*25+15).
func RiskScore(highRiskCount int) int {
	return min(100, highRiskCount*25+15)
}

// HighRisk returns the findings whose phenotype is poor, rapid or ultrarapid, in order.
func HighRisk(findings []domain.GeneFinding) []domain.GeneFinding {
	var out []domain.GeneFinding
	for _, f := range findings {
		if f.IsHighRisk() {
			out = append(out, f)
		}
	}
	return out
}

// Build assembles a report. Recommendations are deduplicated by drug name,
// first occurrence winning, and truncated to MaxRecommendations. Citations are
// appended after BaseCitation with duplicates dropped.
//
// The output depends only on its arguments.
func Build(patientID string, findings []domain.GeneFinding, recommendations []domain.DrugRecommendation, citations ...string) *domain.PatientReport {
	highRisk := HighRisk(findings)
	recs := dedupe(recommendations)
	if len(recs) == 0 {
		recs = []domain.DrugRecommendation{standardRecommendation}
	}

	evidence := recs[0].EvidenceLevel
	if evidence == "" {
		evidence = defaultEvidenceLevel
	}

	quality := staticQuality
	quality.VariantEvidence = evidence

	return &domain.PatientReport{
		PatientID: patientID,
		RiskAssessment: domain.RiskSummary{
			Summary:               summary(len(highRisk)),
			OverallRiskScore:      RiskScore(len(highRisk)),
			HighRiskVariantsCount: len(highRisk),
		},
		PharmacogenomicProfile: profile(findings),
		ClinicalRecommendation: recs,
		Explanation: domain.Explanation{
			BiologicalExplanation:  biological(highRisk, len(recs)),
			ClinicalInterpretation: clinical(evidence),
			EvidenceCitation:       citation(citations),
		},
		QualityMetrics: quality,
	}
}

func dedupe(recs []domain.DrugRecommendation) []domain.DrugRecommendation {
	seen := make(map[string]bool, len(recs))
	out := make([]domain.DrugRecommendation, 0, MaxRecommendations)
	for _, r := range recs {
		if seen[r.Drug] {
			continue
		}
		seen[r.Drug] = true
		out = append(out, r)
		if len(out) == MaxRecommendations {
			break
		}
	}
	return out
}

func summary(highRiskCount int) string {
	if highRiskCount > 0 {
		return fmt.Sprintf("Actionable PGx variants found in %d gene(s).", highRiskCount)
	}
	return "No high-risk variants identified."
}

func profile(findings []domain.GeneFinding) []domain.ProfileEntry {
	entries := make([]domain.ProfileEntry, 0, len(findings))
	for _, f := range findings {
		entries = append(entries, domain.ProfileEntry{
			Gene:       f.Gene,
			Variant:    f.VariantID,
			Genotype:   f.DisplayGenotype,
			Phenotype:  f.Phenotype,
			Confidence: profileConfidence,
		})
	}
	return entries
}

func biological(highRisk []domain.GeneFinding, recCount int) string {
	genes := make([]string, 0, len(highRisk))
	for _, f := range highRisk {
		genes = append(genes, f.Gene)
	}

	topGene, topPhenotype := "primary", "standard metabolizer"
	if len(highRisk) > 0 {
		topGene, topPhenotype = highRisk[0].Gene, highRisk[0].Phenotype
	}

	return fmt.Sprintf("Found significant metabolic variations in the %s pathway(s). "+
		"Specifically, the %s gene is behaving as a %s, "+
		"which directly impacts the clearance rate of %d classes of medications.",
		strings.Join(genes, ", "), topGene, topPhenotype, recCount)
}

func clinical(evidence string) string {
	return fmt.Sprintf("Based on processed PharmGKB and CPIC datasets, this patient carries variants with high clinical evidence "+
		"levels (%s). Clinical actions are warranted for prodrugs like Clopidogrel or substances like Codeine "+
		"if relevant to the current treatment plan.", evidence)
}

func citation(extra []string) string {
	all := []string{BaseCitation}
	for _, c := range extra {
		if c == "" || contains(all, c) {
			continue
		}
		all = append(all, c)
	}
	return strings.Join(all, "; ") + "; " + labelsCitation
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
