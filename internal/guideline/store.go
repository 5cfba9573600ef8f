// Package guideline provides the drug guideline store the risk classifier reads
// from, and the builder that derives it from a CPIC guideline annotation corpus.
package guideline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// Store maps drug names to guidance. It is read-only once constructed and
// safe for concurrent use.
type Store struct {
	drugs map[string]domain.DrugGuideline
}

// NewStore copies entries into a new store.
func NewStore(entries map[string]domain.DrugGuideline) *Store {
	drugs := make(map[string]domain.DrugGuideline, len(entries))
	for name, g := range entries {
		drugs[name] = g
	}
	return &Store{drugs: drugs}
}

// Lookup returns the guideline for an exact drug name.
func (s *Store) Lookup(drug string) (domain.DrugGuideline, bool) {
	g, ok := s.drugs[drug]
	return g, ok
}

// Drugs returns all drug names in sorted order.
func (s *Store) Drugs() []string {
	names := make([]string, 0, len(s.drugs))
	for name := range s.drugs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of drugs in the store.
func (s *Store) Len() int {
	return len(s.drugs)
}

// LoadJSON reads a drug database of the form {"<drug>": {"gene", "advice", "source", ...}}.
func LoadJSON(r io.Reader) (*Store, error) {
	var entries map[string]domain.DrugGuideline
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding guideline database: %w", err)
	}
	return NewStore(entries), nil
}

// LoadFile reads a JSON drug database from disk. An empty path yields an empty store.
func LoadFile(path string) (*Store, error) {
	if path == "" {
		return NewStore(nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening guideline database: %w", err)
	}
	defer f.Close()

	return LoadJSON(f)
}

// WriteJSON writes the store in the format LoadJSON reads.
func (s *Store) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s.drugs)
}
