// Package domain contains the core entities shared by the pharmacogenomic engine:
// variant annotations, genotype calls, resolved gene findings, drug guidelines and
// the risk assessments and patient reports built from them.
//
// None of these types carry behaviour beyond validation and formatting; the
// engines that produce them live in the annotation, genotype, phenotype,
// guideline, risk and report packages.
package domain

import (
	"strings"
)

// Genotype is a normalized, unphased diploid genotype call.
type Genotype string

const (
	HomozygousReference Genotype = "0/0"
	Heterozygous        Genotype = "0/1"
	HomozygousVariant   Genotype = "1/1"
)

// RequiredGenotypes lists the genotype classes every annotation must map.
var RequiredGenotypes = []Genotype{HomozygousReference, Heterozygous, HomozygousVariant}

// IsKnown reports whether the genotype is one of the three mapped classes.
func (g Genotype) IsKnown() bool {
	switch g {
	case HomozygousReference, Heterozygous, HomozygousVariant:
		return true
	default:
		return false
	}
}

// String returns the VCF form of the genotype.
func (g Genotype) String() string {
	return string(g)
}

// NormalizeGenotype converts a raw GT value to its unphased form.
func NormalizeGenotype(raw string) Genotype {
	return Genotype(strings.ReplaceAll(raw, "|", "/"))
}

// FunctionalImpact is an informational tag describing the allele's effect.
type FunctionalImpact string

const (
	LossOfFunction    FunctionalImpact = "loss_of_function"
	DecreasedFunction FunctionalImpact = "decreased_function"
	IncreasedFunction FunctionalImpact = "increased_function"
)

// IsValid validates the functional impact tag.
func (f FunctionalImpact) IsValid() bool {
	switch f {
	case LossOfFunction, DecreasedFunction, IncreasedFunction:
		return true
	default:
		return false
	}
}

// VariantDefinition is one entry of the static annotation table.
type VariantDefinition struct {
	VariantID           string              `json:"variant_id" yaml:"variant_id"`
	Gene                string              `json:"gene" yaml:"gene"`
	AlleleLabel         string              `json:"allele" yaml:"allele"`
	FunctionalImpact    FunctionalImpact    `json:"impact" yaml:"impact"`
	GenotypeToPhenotype map[Genotype]string `json:"phenotype_map" yaml:"phenotype_map"`
}

// ObservedGenotypes maps annotated variant IDs to the genotype seen in the input.
type ObservedGenotypes map[string]Genotype

// Get returns the observed genotype for a variant, or wild-type when absent.
func (o ObservedGenotypes) Get(variantID string) Genotype {
	if gt, ok := o[variantID]; ok {
		return gt
	}
	return HomozygousReference
}

// GeneFinding is the resolved, per-gene result of phenotype resolution.
type GeneFinding struct {
	Gene            string   `json:"gene"`
	VariantID       string   `json:"rsID"`
	DisplayGenotype string   `json:"genotype"`
	Phenotype       string   `json:"phenotype"`
	RawGenotype     Genotype `json:"rawGT,omitempty"`
}

// IsHighRisk reports whether the finding's phenotype is poor, rapid or ultrarapid.
func (f GeneFinding) IsHighRisk() bool {
	p := strings.ToLower(f.Phenotype)
	return strings.Contains(p, "poor") || strings.Contains(p, "rapid") || strings.Contains(p, "ultra")
}

// DrugGuideline is the guidance record for one drug.
type DrugGuideline struct {
	GeneRef       string `json:"gene"`
	AdviceText    string `json:"advice"`
	SourceLabel   string `json:"source"`
	GuidelineName string `json:"guidelineName,omitempty"`
	URL           string `json:"url,omitempty"`
}

// AssessmentLevel is the risk tier assigned by the classifier.
type AssessmentLevel string

const (
	Safe       AssessmentLevel = "Safe"
	AdjustDose AssessmentLevel = "Adjust Dose"
	Toxic      AssessmentLevel = "Toxic"
	Unknown    AssessmentLevel = "Unknown"
)

// IsValid reports whether the level is one of the four assessment tiers.
func (l AssessmentLevel) IsValid() bool {
	switch l {
	case Safe, AdjustDose, Toxic, Unknown:
		return true
	default:
		return false
	}
}

// String returns the display form of the level.
func (l AssessmentLevel) String() string {
	return string(l)
}

// RiskAssessment is the result of classifying one drug against one phenotype.
type RiskAssessment struct {
	DrugName     string          `json:"drug"`
	Phenotype    string          `json:"phenotype"`
	Level        AssessmentLevel `json:"assessment"`
	GuidanceText string          `json:"guidance"`
	SourceLabel  string          `json:"source"`
}

// DrugRecommendation is one clinical action line of a patient report.
type DrugRecommendation struct {
	Drug          string `json:"drug"`
	Action        string `json:"action"`
	Reason        string `json:"reason"`
	Alternative   string `json:"alternative,omitempty"`
	EvidenceLevel string `json:"evidence_level,omitempty"`
}

// PatientReport is the aggregate dashboard payload for one patient.
type PatientReport struct {
	PatientID              string               `json:"patient_id"`
	RiskAssessment         RiskSummary          `json:"risk_assessment"`
	PharmacogenomicProfile []ProfileEntry       `json:"pharmacogenomic_profile"`
	ClinicalRecommendation []DrugRecommendation `json:"clinical_recommendation"`
	Explanation            Explanation          `json:"llm_generated_explanation"`
	QualityMetrics         QualityMetrics       `json:"quality_metrics"`
}

// RiskSummary holds the headline numbers of a report.
type RiskSummary struct {
	Summary               string `json:"summary"`
	OverallRiskScore      int    `json:"overall_risk_score"`
	HighRiskVariantsCount int    `json:"high_risk_variants_count"`
}

// ProfileEntry is one gene row of the pharmacogenomic profile.
type ProfileEntry struct {
	Gene       string  `json:"gene"`
	Variant    string  `json:"variant"`
	Genotype   string  `json:"genotype"`
	Phenotype  string  `json:"phenotype"`
	Confidence float64 `json:"confidence"`
}

// Explanation carries the templated narrative of a report.
type Explanation struct {
	BiologicalExplanation  string `json:"biological_explanation"`
	ClinicalInterpretation string `json:"clinical_interpretation"`
	EvidenceCitation       string `json:"evidence_citation"`
}

// QualityMetrics are static placeholders; nothing in the engine computes them.
type QualityMetrics struct {
	VariantEvidence   string `json:"variant_evidence"`
	AnnotationQuality string `json:"annotation_quality"`
	DatabaseCertainty string `json:"database_certainty"`
}
