package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-pgx-server/internal/annotation"
	"github.com/pharmaguard-pgx-server/internal/domain"
)

func TestLoadTable_Default(t *testing.T) {
	table, err := LoadTable("")

	require.NoError(t, err)
	assert.Equal(t, annotation.Default().Len(), table.Len())
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadGuidelines_MissingFileIsEmpty(t *testing.T) {
	logger, hook := test.NewNullLogger()

	store, err := LoadGuidelines(filepath.Join(t.TempDir(), "drug_db.json"), logger)

	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLoadGuidelines_Malformed(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "drug_db.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2"), 0o644))

	_, err := LoadGuidelines(path, logger)
	assert.Error(t, err)
}

func TestNewFromEngineConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "drug_db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "warfarin": {"gene": "CYP2C9", "advice": "Reduce dose for decreased function.", "source": "CPIC Guidelines"}
}`), 0o644))

	svc, err := NewFromEngineConfig(domain.EngineConfig{GuidelineDBPath: path}, logger)

	require.NoError(t, err)
	assert.Equal(t, []string{"warfarin"}, svc.Drugs())
	assert.Equal(t, annotation.Default().Genes(), svc.Table().Genes())
}

func TestLoadGuidelines_SeedDatabase(t *testing.T) {
	logger, hook := test.NewNullLogger()

	store, err := LoadGuidelines(filepath.Join("..", "..", "data", "drug_db.json"), logger)
	require.NoError(t, err)
	assert.Nil(t, hook.LastEntry())

	assert.Equal(t, 6, store.Len())
	genes := annotation.Default().Genes()
	for _, drug := range store.Drugs() {
		g, ok := store.Lookup(drug)
		require.True(t, ok, drug)
		assert.Contains(t, genes, g.GeneRef, drug)
		assert.Equal(t, "CPIC Guidelines", g.SourceLabel, drug)
	}

	codeine, ok := store.Lookup("codeine")
	require.True(t, ok)
	assert.Contains(t, codeine.AdviceText, "poor metabolizers")
}
