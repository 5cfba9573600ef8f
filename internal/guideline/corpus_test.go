package guideline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

func writeCorpusFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestBuildFromCorpus(t *testing.T) {
	dir := t.TempDir()

	writeCorpusFile(t, dir, "a_codeine.json", `{
		"guideline": {
			"name": "Annotation of CPIC Guideline for codeine and CYP2D6",
			"url": "https://www.pharmgkb.org/guidelineAnnotation/PA166104996",
			"summaryMarkdown": {"html": "<p>Avoid codeine in <b>poor</b> metabolizers.</p>"},
			"relatedChemicals": [{"name": "codeine"}],
			"relatedGenes": [{"symbol": "CYP2D6"}]
		}
	}`)
	writeCorpusFile(t, dir, "b_ssri.json", `{
		"guideline": {
			"name": "SSRIs",
			"summaryMarkdown": "Consider an alternative for <i>ultrarapid</i> metabolizers.",
			"relatedChemicals": [{"name": "citalopram"}, {"name": "escitalopram"}, {"name": ""}]
		}
	}`)
	writeCorpusFile(t, dir, "c_codeine_update.json", `{
		"guideline": {
			"name": "Updated codeine",
			"summaryMarkdown": "Updated advice for intermediate metabolizers.",
			"relatedChemicals": [{"name": "codeine"}],
			"relatedGenes": [{"symbol": "CYP2D6"}, {"symbol": "COMT"}]
		}
	}`)
	writeCorpusFile(t, dir, "d_broken.json", `{not json`)
	writeCorpusFile(t, dir, "e_no_guideline.json", `{"citations": []}`)
	writeCorpusFile(t, dir, "notes.txt", `ignored`)

	logger, hook := test.NewNullLogger()
	store, err := BuildFromCorpus(dir, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"citalopram", "codeine", "escitalopram"}, store.Drugs())

	codeine, _ := store.Lookup("codeine")
	assert.Equal(t, "Updated advice for intermediate metabolizers.", codeine.AdviceText)
	assert.Equal(t, "CYP2D6,COMT", codeine.GeneRef)
	assert.Equal(t, "Updated codeine", codeine.GuidelineName)

	citalopram, _ := store.Lookup("citalopram")
	assert.Equal(t, "Consider an alternative for ultrarapid metabolizers.", citalopram.AdviceText)
	assert.Equal(t, "See CPIC", citalopram.GeneRef)
	assert.Equal(t, "CPIC Guidelines", citalopram.SourceLabel)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["file"] == "d_broken.json" {
			warned = true
		}
	}
	assert.True(t, warned, "broken file should be logged")
}

func TestBuildFromCorpus_MissingDir(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := BuildFromCorpus("/nonexistent/corpus", logger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCorpus))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Use 50% dose.", StripHTML(`<p class="x">Use <strong>50%</strong> dose.</p>`))
	assert.Equal(t, "", StripHTML(""))
}
