package service

import (
	"context"
	"fmt"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/annotation"
	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/genotype"
	"github.com/pharmaguard-pgx-server/internal/guideline"
	"github.com/pharmaguard-pgx-server/internal/phenotype"
	"github.com/pharmaguard-pgx-server/internal/risk"
)

// DefaultClassifyCacheSize bounds the classification memo when no size is configured.
const DefaultClassifyCacheSize = 1024

// Analysis is the result of running variant text through extraction and resolution.
type Analysis struct {
	Observed domain.ObservedGenotypes `json:"observed"`
	Findings []domain.GeneFinding     `json:"genes"`
}

type classifyKey struct {
	drug      string
	phenotype string
}

// AnalysisService wires the engine packages together for the API, MCP and CLI surfaces.
type AnalysisService struct {
	logger     *logrus.Logger
	table      *annotation.Table
	guidelines *guideline.Store
	classifier *risk.Classifier
	memo       *lru.Cache[classifyKey, domain.RiskAssessment]
	cache      domain.ReportCache
	reports    domain.ReportRepository
}

// Option configures optional collaborators of AnalysisService.
type Option func(*AnalysisService)

// WithReportCache writes generated reports through to cache.
func WithReportCache(cache domain.ReportCache) Option {
	return func(s *AnalysisService) { s.cache = cache }
}

// WithReportRepository persists generated reports.
func WithReportRepository(repo domain.ReportRepository) Option {
	return func(s *AnalysisService) { s.reports = repo }
}

// NewAnalysisService creates a new analysis service over an immutable table and store.
func NewAnalysisService(
	logger *logrus.Logger,
	table *annotation.Table,
	guidelines *guideline.Store,
	cacheSize int,
	opts ...Option,
) (*AnalysisService, error) {
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("annotation table is required: %w", domain.ErrInvalidTable)
	}
	if guidelines == nil {
		guidelines = guideline.NewStore(nil)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultClassifyCacheSize
	}

	memo, err := lru.New[classifyKey, domain.RiskAssessment](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification cache: %w", err)
	}

	s := &AnalysisService{
		logger:     logger,
		table:      table,
		guidelines: guidelines,
		classifier: risk.NewClassifier(guidelines, nil),
		memo:       memo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Table returns the annotation table the service resolves against.
func (s *AnalysisService) Table() *annotation.Table {
	return s.table
}

// Drugs lists every drug with guidance, sorted.
func (s *AnalysisService) Drugs() []string {
	return s.guidelines.Drugs()
}

// Guideline returns the guidance for one drug.
func (s *AnalysisService) Guideline(drug string) (domain.DrugGuideline, bool) {
	return s.guidelines.Lookup(drug)
}

// Analyze extracts genotypes from raw variant text and resolves one finding per gene.
func (s *AnalysisService) Analyze(ctx context.Context, rawText string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	observed := genotype.Extract(s.table, rawText)
	return s.resolve(observed, start), nil
}

// AnalyzeReader is Analyze over a stream, used for uploaded files.
func (s *AnalysisService) AnalyzeReader(ctx context.Context, r io.Reader) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	observed, err := genotype.ExtractReader(s.table, r)
	if err != nil {
		return nil, fmt.Errorf("failed to extract genotypes: %w", err)
	}
	return s.resolve(observed, start), nil
}

func (s *AnalysisService) resolve(observed domain.ObservedGenotypes, start time.Time) *Analysis {
	findings := phenotype.Resolve(s.table, observed)

	highRisk := 0
	for _, f := range findings {
		if f.IsHighRisk() {
			highRisk++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"observed_variants": len(observed),
		"genes":             len(findings),
		"high_risk":         highRisk,
		"duration_ms":       time.Since(start).Milliseconds(),
	}).Info("Variant analysis completed")

	return &Analysis{Observed: observed, Findings: findings}
}

// ClassifyDrug classifies one drug against one phenotype. Results are memoised;
// the guideline store never changes so a cached result is always current.
func (s *AnalysisService) ClassifyDrug(ctx context.Context, drug, phenotype string) (domain.RiskAssessment, error) {
	if err := ctx.Err(); err != nil {
		return domain.RiskAssessment{}, err
	}

	key := classifyKey{drug: drug, phenotype: phenotype}
	if cached, ok := s.memo.Get(key); ok {
		return cached, nil
	}

	assessment := s.classifier.Classify(drug, phenotype)
	s.memo.Add(key, assessment)

	s.logger.WithFields(logrus.Fields{
		"drug":       drug,
		"phenotype":  phenotype,
		"assessment": assessment.Level,
	}).Debug("Drug classified")

	if assessment.Level == domain.Unknown {
		s.logger.WithField("drug", drug).Warn("No guideline found for drug")
	}

	return assessment, nil
}

// ClassifyForFindings classifies drug against the phenotype of every finding, in order.
func (s *AnalysisService) ClassifyForFindings(ctx context.Context, drug string, findings []domain.GeneFinding) ([]domain.RiskAssessment, error) {
	assessments := make([]domain.RiskAssessment, 0, len(findings))
	for _, f := range findings {
		a, err := s.ClassifyDrug(ctx, drug, f.Phenotype)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, nil
}
