package guideline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

const drugDB = `{
  "codeine": {
    "gene": "CYP2D6",
    "advice": "Avoid codeine use in poor metabolizers and ultrarapid metabolizers.",
    "source": "CPIC Guidelines",
    "guidelineName": "CPIC Guideline for Codeine and CYP2D6",
    "url": "https://cpicpgx.org/guidelines/"
  },
  "warfarin": {
    "gene": "CYP2C9,VKORC1",
    "advice": "Reduce starting dose for intermediate metabolizers.",
    "source": "CPIC Guidelines"
  }
}`

func TestLoadJSON(t *testing.T) {
	store, err := LoadJSON(strings.NewReader(drugDB))
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"codeine", "warfarin"}, store.Drugs())

	g, ok := store.Lookup("codeine")
	require.True(t, ok)
	assert.Equal(t, "CYP2D6", g.GeneRef)
	assert.Equal(t, "CPIC Guidelines", g.SourceLabel)
	assert.Equal(t, "https://cpicpgx.org/guidelines/", g.URL)
}

func TestLookup_ExactName(t *testing.T) {
	store, err := LoadJSON(strings.NewReader(drugDB))
	require.NoError(t, err)

	_, ok := store.Lookup("Codeine")
	assert.False(t, ok, "lookup does not normalize case")
}

func TestLoadJSON_Invalid(t *testing.T) {
	_, err := LoadJSON(strings.NewReader("[1, 2"))
	assert.Error(t, err)
}

func TestLoadFile_EmptyPath(t *testing.T) {
	store, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestNewStore_CopiesEntries(t *testing.T) {
	entries := map[string]domain.DrugGuideline{"codeine": {AdviceText: "poor"}}
	store := NewStore(entries)

	entries["tramadol"] = domain.DrugGuideline{}
	assert.Equal(t, 1, store.Len())
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	store, err := LoadJSON(strings.NewReader(drugDB))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.WriteJSON(&buf))

	reloaded, err := LoadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, store.Drugs(), reloaded.Drugs())
}
