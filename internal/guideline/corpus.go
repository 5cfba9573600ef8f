package guideline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// Values stored for corpus entries. Guidelines without relatedGenes get a
// gene reference pointing back to CPIC.
const (
	corpusGeneRef = "See CPIC"
	corpusSource  = "CPIC Guidelines"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// annotationFile is the subset of a CPIC guideline annotation document we read.
type annotationFile struct {
	Guideline *struct {
		Name             string          `json:"name"`
		URL              string          `json:"url"`
		SummaryMarkdown  json.RawMessage `json:"summaryMarkdown"`
		RelatedChemicals []struct {
			Name string `json:"name"`
		} `json:"relatedChemicals"`
		RelatedGenes []struct {
			Symbol string `json:"symbol"`
		} `json:"relatedGenes"`
	} `json:"guideline"`
}

// summaryText accepts summaryMarkdown as either a plain string or {"html": "..."}.
func summaryText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.HTML
	}
	return ""
}

// StripHTML removes markup tags, leaving text content.
func StripHTML(html string) string {
	return htmlTag.ReplaceAllString(html, "")
}

// BuildFromCorpus reads every *.json guideline annotation in dir and returns a store
// with one entry per related chemical. Files are processed in name order and a later
// guideline naming the same chemical replaces an earlier one. Files that cannot be
// read or decoded are logged and skipped.
func BuildFromCorpus(dir string, logger *logrus.Logger) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidCorpus, dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	logger.WithFields(logrus.Fields{
		"dir":   dir,
		"files": len(files),
	}).Info("Building guideline store from corpus")

	drugs := make(map[string]domain.DrugGuideline)
	for _, name := range files {
		if err := addCorpusFile(filepath.Join(dir, name), drugs); err != nil {
			logger.WithError(err).WithField("file", name).Warn("Skipping guideline file")
		}
	}

	logger.WithField("drugs", len(drugs)).Info("Guideline store built")
	return NewStore(drugs), nil
}

func addCorpusFile(path string, drugs map[string]domain.DrugGuideline) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc annotationFile
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	if doc.Guideline == nil {
		return nil
	}

	advice := StripHTML(summaryText(doc.Guideline.SummaryMarkdown))

	geneRef := corpusGeneRef
	var genes []string
	for _, g := range doc.Guideline.RelatedGenes {
		if g.Symbol != "" {
			genes = append(genes, g.Symbol)
		}
	}
	if len(genes) > 0 {
		geneRef = strings.Join(genes, ",")
	}

	for _, chem := range doc.Guideline.RelatedChemicals {
		if chem.Name == "" {
			continue
		}
		drugs[chem.Name] = domain.DrugGuideline{
			GeneRef:       geneRef,
			AdviceText:    advice,
			SourceLabel:   corpusSource,
			GuidelineName: doc.Guideline.Name,
			URL:           doc.Guideline.URL,
		}
	}
	return nil
}
