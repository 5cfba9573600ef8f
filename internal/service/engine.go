package service

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/annotation"
	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/guideline"
)

// NewFromEngineConfig loads the annotation table and guideline store named
// by cfg and builds an AnalysisService over them.
func NewFromEngineConfig(cfg domain.EngineConfig, logger *logrus.Logger, opts ...Option) (*AnalysisService, error) {
	table, err := LoadTable(cfg.AnnotationTablePath)
	if err != nil {
		return nil, err
	}

	guidelines, err := LoadGuidelines(cfg.GuidelineDBPath, logger)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"variants": table.Len(),
		"genes":    len(table.Genes()),
		"drugs":    guidelines.Len(),
	}).Info("Engine data loaded")

	return NewAnalysisService(logger, table, guidelines, cfg.ClassifyCacheSize, opts...)
}

// LoadTable reads an annotation table file, or returns the built-in panel for an empty path.
func LoadTable(path string) (*annotation.Table, error) {
	if path == "" {
		return annotation.Default(), nil
	}
	table, err := annotation.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotation table: %w", err)
	}
	return table, nil
}

// LoadGuidelines reads the drug database. A missing file is not fatal: the
// engine still resolves phenotypes and every drug classifies as Unknown.
func LoadGuidelines(path string, logger *logrus.Logger) (*guideline.Store, error) {
	store, err := guideline.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.WithField("path", path).Warn("Guideline database not found, starting with no drug guidance; generate one with pgx build-guidelines")
		return guideline.NewStore(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guideline database: %w", err)
	}
	return store, nil
}
