package service

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-pgx-server/internal/annotation"
	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/guideline"
)

const sampleVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE\n" +
	"22\t42128945\trs3892097\tC\tT\t.\tPASS\t.\tGT:DP\t1|1:30\n" +
	"10\t94761900\trs12248560\tC\tT\t.\tPASS\t.\tGT\t0/1\n" +
	"1\t100\trs0000001\tA\tG\t.\tPASS\t.\tGT\t1/1\n"

func testGuidelines() *guideline.Store {
	return guideline.NewStore(map[string]domain.DrugGuideline{
		"codeine": {
			GeneRef:     "CYP2D6",
			AdviceText:  "Avoid codeine use in poor metabolizers because of lack of efficacy.",
			SourceLabel: "CPIC Guidelines",
		},
		"clopidogrel": {
			GeneRef:     "CYP2C19",
			AdviceText:  "Rapid and ultrarapid metabolizers: use standard dosing.",
			SourceLabel: "CPIC Guidelines",
		},
	})
}

func newTestService(t *testing.T, opts ...Option) (*AnalysisService, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	svc, err := NewAnalysisService(logger, annotation.Default(), testGuidelines(), 16, opts...)
	require.NoError(t, err)
	return svc, hook
}

func TestNewAnalysisService_RequiresTable(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewAnalysisService(logger, nil, nil, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTable)
}

func TestNewAnalysisService_NilGuidelines(t *testing.T) {
	logger, _ := test.NewNullLogger()

	svc, err := NewAnalysisService(logger, annotation.Default(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, svc.Drugs())
}

func TestAnalyze(t *testing.T) {
	svc, hook := newTestService(t)

	analysis, err := svc.Analyze(context.Background(), sampleVCF)
	require.NoError(t, err)

	assert.Len(t, analysis.Observed, 2)
	assert.Equal(t, domain.HomozygousVariant, analysis.Observed["rs3892097"])
	assert.Len(t, analysis.Findings, len(annotation.Default().Genes()))

	byGene := map[string]domain.GeneFinding{}
	for _, f := range analysis.Findings {
		byGene[f.Gene] = f
	}
	assert.Equal(t, "Poor Metabolizer", byGene["CYP2D6"].Phenotype)
	assert.Equal(t, "*4/*4", byGene["CYP2D6"].DisplayGenotype)
	assert.Equal(t, "Rapid Metabolizer", byGene["CYP2C19"].Phenotype)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Variant analysis completed", entry.Message)
	assert.Equal(t, 2, entry.Data["observed_variants"])
	assert.Equal(t, 2, entry.Data["high_risk"])
}

func TestAnalyze_EmptyInput(t *testing.T) {
	svc, _ := newTestService(t)

	analysis, err := svc.Analyze(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, analysis.Observed)
	assert.Len(t, analysis.Findings, len(annotation.Default().Genes()))
	for _, f := range analysis.Findings {
		assert.Equal(t, domain.HomozygousReference, f.RawGenotype)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Analyze(context.Background(), sampleVCF)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), sampleVCF)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeReader_MatchesAnalyze(t *testing.T) {
	svc, _ := newTestService(t)

	fromText, err := svc.Analyze(context.Background(), sampleVCF)
	require.NoError(t, err)
	fromReader, err := svc.AnalyzeReader(context.Background(), strings.NewReader(sampleVCF))
	require.NoError(t, err)

	assert.Equal(t, fromText, fromReader)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, sampleVCF)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = svc.ClassifyDrug(ctx, "codeine", "Poor Metabolizer")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyDrug(t *testing.T) {
	svc, hook := newTestService(t)
	ctx := context.Background()

	got, err := svc.ClassifyDrug(ctx, "codeine", "Poor Metabolizer")
	require.NoError(t, err)
	assert.Equal(t, domain.Toxic, got.Level)
	assert.Equal(t, "CPIC Guidelines", got.SourceLabel)

	_, err = svc.ClassifyDrug(ctx, "Nonexistent-Drug-X", "Poor Metabolizer")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestClassifyDrug_Memoised(t *testing.T) {
	svc, hook := newTestService(t)
	ctx := context.Background()

	first, err := svc.ClassifyDrug(ctx, "codeine", "Poor Metabolizer")
	require.NoError(t, err)
	logged := len(hook.AllEntries())

	second, err := svc.ClassifyDrug(ctx, "codeine", "Poor Metabolizer")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, hook.AllEntries(), logged, "cached classification should not log again")
	assert.Equal(t, 1, svc.memo.Len())
}

func TestClassifyForFindings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	analysis, err := svc.Analyze(ctx, sampleVCF)
	require.NoError(t, err)

	assessments, err := svc.ClassifyForFindings(ctx, "codeine", analysis.Findings)
	require.NoError(t, err)
	require.Len(t, assessments, len(analysis.Findings))

	for i, a := range assessments {
		assert.Equal(t, analysis.Findings[i].Phenotype, a.Phenotype)
		assert.True(t, a.Level.IsValid())
	}
}
