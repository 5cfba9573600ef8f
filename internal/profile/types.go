// Package profile stores analysed patient profiles: the per-gene findings of
// one uploaded variant file together with a display name.
package profile

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/report"
)

// MaxNameLength is the longest accepted profile name, in characters.
const MaxNameLength = 50

// DefaultName is used when an upload does not name the profile.
const DefaultName = "Anonymous Patient"

// GeneResult is one stored gene row of a profile.
type GeneResult struct {
	Gene      string                 `json:"gene"`
	RsID      string                 `json:"rsID"`
	Genotype  string                 `json:"genotype"`
	Phenotype string                 `json:"phenotype"`
	RiskLevel domain.AssessmentLevel `json:"riskLevel"`
}

// Profile is a stored analysis result.
type Profile struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Timestamp time.Time    `json:"timestamp"`
	Genes     []GeneResult `json:"genes"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// FromFindings builds an unsaved profile from resolved findings.
func FromFindings(name string, findings []domain.GeneFinding) *Profile {
	genes := make([]GeneResult, 0, len(findings))
	for _, f := range findings {
		genes = append(genes, GeneResult{
			Gene:      f.Gene,
			RsID:      f.VariantID,
			Genotype:  f.DisplayGenotype,
			Phenotype: f.Phenotype,
		})
	}
	return &Profile{Name: name, Genes: genes}
}

// Findings converts stored gene rows back into findings for reporting.
// The raw genotype is not stored and stays empty.
func (p *Profile) Findings() []domain.GeneFinding {
	findings := make([]domain.GeneFinding, 0, len(p.Genes))
	for _, g := range p.Genes {
		findings = append(findings, domain.GeneFinding{
			Gene:            g.Gene,
			VariantID:       g.RsID,
			DisplayGenotype: g.Genotype,
			Phenotype:       g.Phenotype,
		})
	}
	return findings
}

// Validate checks the fields a caller can set.
func (p *Profile) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return domain.NewValidationError("name", "name is required", p.Name)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return domain.NewValidationError("name", "name must be at most 50 characters", p.Name)
	}
	return nil
}

// prepare validates p and fills in everything the stores derive on save:
// the id, the trimmed name, the timestamp and every gene's risk level.
func (p *Profile) prepare() error {
	if p.Name == "" {
		p.Name = DefaultName
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(p.Name)

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	for i := range p.Genes {
		p.Genes[i].RiskLevel = report.RiskLevel(p.Genes[i].Phenotype)
	}
	return nil
}

// Store defines the interface for profile storage operations.
type Store interface {
	// Create assigns an ID when missing and inserts the profile.
	Create(ctx context.Context, profile *Profile) error

	// Get returns domain.ErrNotFound when no profile has the ID.
	Get(ctx context.Context, id string) (*Profile, error)

	// Update replaces name and genes of an existing profile.
	// It returns domain.ErrNotFound when no profile has the ID.
	Update(ctx context.Context, profile *Profile) error

	// List returns profiles, newest first.
	List(ctx context.Context, limit, offset int) ([]*Profile, error)

	// Count returns the total number of profiles.
	Count(ctx context.Context) (int64, error)

	// Delete removes a profile by ID.
	Delete(ctx context.Context, id string) error

	// ExportJSON exports all profiles to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports profiles from a JSON reader, skipping IDs that already exist.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string     `json:"version"`
	ExportedAt time.Time  `json:"exported_at"`
	Count      int        `json:"count"`
	Profiles   []*Profile `json:"profiles"`
}
