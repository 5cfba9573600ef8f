// Package genotype scans line-oriented variant records (VCF-style text) and
// extracts one genotype call per annotated variant ID.
//
// The parser is deliberately permissive: header and blank lines are skipped,
// lines with fewer than three tab-separated columns are ignored, and variants
// the annotation table does not know are dropped without error.
package genotype

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// Column layout of a VCF data line: CHROM POS ID REF ALT QUAL FILTER INFO FORMAT SAMPLE
const (
	idColumn     = 2
	sampleColumn = 9
	minColumns   = 3
)

// maxLineSize bounds a single record; INFO columns in annotated VCFs get long.
const maxLineSize = 1024 * 1024

// Annotations is the subset of the annotation table the extractor needs.
type Annotations interface {
	Contains(variantID string) bool
}

// Extract returns the observed genotypes in rawText for every annotated variant.
// Later records for the same variant ID replace earlier ones.
func Extract(table Annotations, rawText string) domain.ObservedGenotypes {
	observed := make(domain.ObservedGenotypes)
	for _, line := range strings.Split(rawText, "\n") {
		parseLine(table, strings.TrimSuffix(line, "\r"), observed)
	}
	return observed
}

// ExtractReader applies the same rules as Extract to a stream.
// Only read errors are returned; malformed records are skipped, and so is
// any record longer than maxLineSize.
func ExtractReader(table Annotations, r io.Reader) (domain.ObservedGenotypes, error) {
	observed := make(domain.ObservedGenotypes)

	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	overlong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !overlong {
			if len(line)+len(chunk) > maxLineSize+1 {
				overlong = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if !overlong && len(line) > 0 {
			text := strings.TrimSuffix(string(line), "\n")
			parseLine(table, strings.TrimSuffix(text, "\r"), observed)
		}
		line = line[:0]
		overlong = false

		if errors.Is(err, io.EOF) {
			return observed, nil
		}
		if err != nil {
			return observed, fmt.Errorf("reading variant records: %w", err)
		}
	}
}

func parseLine(table Annotations, line string, observed domain.ObservedGenotypes) {
	if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
		return
	}

	cols := strings.Split(line, "\t")
	if len(cols) < minColumns {
		return
	}

	variantID := cols[idColumn]
	if !table.Contains(variantID) {
		return
	}

	observed[variantID] = GenotypeCall(cols)
}

// GenotypeCall returns the normalized GT of a split data line,
// or wild-type when the line has no sample column or an empty GT subfield.
func GenotypeCall(cols []string) domain.Genotype {
	if len(cols) <= sampleColumn || cols[sampleColumn] == "" {
		return domain.HomozygousReference
	}
	gt, _, _ := strings.Cut(cols[sampleColumn], ":")
	if gt == "" {
		return domain.HomozygousReference
	}
	return domain.NormalizeGenotype(gt)
}
