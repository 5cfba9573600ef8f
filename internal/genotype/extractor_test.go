package genotype

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-pgx-server/internal/annotation"
	"github.com/pharmaguard-pgx-server/internal/domain"
)

const sampleVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE\n" +
	"22\t42128945\trs3892097\tC\tT\t50\tPASS\t.\tGT:DP\t1/1:30\n" +
	"10\t94781859\trs4244285\tG\tA\t50\tPASS\t.\tGT:DP\t0|1:22\n" +
	"10\t94761900\trs12248560\tC\tT\t50\tPASS\t.\n" +
	"1\t100\trs0000001\tA\tG\t50\tPASS\t.\tGT\t1/1\n"

func TestExtract(t *testing.T) {
	observed := Extract(annotation.Default(), sampleVCF)

	assert.Equal(t, domain.ObservedGenotypes{
		"rs3892097":  domain.HomozygousVariant,
		"rs4244285":  domain.Heterozygous,
		"rs12248560": domain.HomozygousReference,
	}, observed)
}

func TestExtract_SkipsUnannotatedVariants(t *testing.T) {
	observed := Extract(annotation.Default(), "1\t100\trs0000001\tA\tG\t50\tPASS\t.\tGT\t1/1\n")
	assert.Empty(t, observed)
}

func TestExtract_CRLF(t *testing.T) {
	text := strings.ReplaceAll(sampleVCF, "\n", "\r\n")
	observed := Extract(annotation.Default(), text)

	assert.Equal(t, domain.HomozygousVariant, observed["rs3892097"])
	assert.Equal(t, domain.Heterozygous, observed["rs4244285"])
}

func TestExtract_MalformedLines(t *testing.T) {
	text := "garbage line without tabs\n" +
		"only\ttwo\n" +
		"   \n" +
		"\n" +
		"# comment\trs3892097\t1/1\n" +
		"22\t1\trs1142345\tA\tG\t.\t.\t.\tGT\t1|1\n"

	observed := Extract(annotation.Default(), text)

	assert.Equal(t, domain.ObservedGenotypes{"rs1142345": domain.HomozygousVariant}, observed)
}

func TestExtract_EmptyInput(t *testing.T) {
	assert.Empty(t, Extract(annotation.Default(), ""))
}

func TestExtract_LastRecordWins(t *testing.T) {
	text := "22\t1\trs3892097\tC\tT\t.\t.\t.\tGT\t0/1\n" +
		"22\t1\trs3892097\tC\tT\t.\t.\t.\tGT\t1/1\n"

	observed := Extract(annotation.Default(), text)
	assert.Equal(t, domain.HomozygousVariant, observed["rs3892097"])
}

func TestExtract_UnexpectedGenotypeKept(t *testing.T) {
	observed := Extract(annotation.Default(), "22\t1\trs3892097\tC\tT,G\t.\t.\t.\tGT\t1|2\n")
	assert.Equal(t, domain.Genotype("1/2"), observed["rs3892097"])
}

func TestGenotypeCall(t *testing.T) {
	tests := []struct {
		name string
		cols []string
		want domain.Genotype
	}{
		{"no sample column", []string{"1", "2", "rs1"}, domain.HomozygousReference},
		{"empty sample column", []string{"1", "2", "rs1", "", "", "", "", "", "", ""}, domain.HomozygousReference},
		{"genotype only", []string{"1", "2", "rs1", "", "", "", "", "", "GT", "0/1"}, domain.Heterozygous},
		{"empty GT subfield", []string{"1", "2", "rs1", "", "", "", "", "", "GT:DP", ":30"}, domain.HomozygousReference},
		{"phased with fields", []string{"1", "2", "rs1", "", "", "", "", "", "GT:AD", "1|1:0,12"}, domain.HomozygousVariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenotypeCall(tt.cols))
		})
	}
}

func TestExtractReader(t *testing.T) {
	observed, err := ExtractReader(annotation.Default(), strings.NewReader(sampleVCF))
	require.NoError(t, err)

	assert.Equal(t, Extract(annotation.Default(), sampleVCF), observed)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestExtractReader_ReadError(t *testing.T) {
	_, err := ExtractReader(annotation.Default(), failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestExtractReader_OverlongRecordSkipped(t *testing.T) {
	longInfo := strings.Repeat("A", 2*maxLineSize)
	text := "##fileformat=VCFv4.2\n" +
		"1\t100\trs0000001\tA\tG\t50\tPASS\t" + longInfo + "\tGT\t1/1\n" +
		"22\t42128945\trs3892097\tC\tT\t50\tPASS\t.\tGT:DP\t1/1:30\n"

	observed, err := ExtractReader(annotation.Default(), strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, domain.ObservedGenotypes{"rs3892097": domain.HomozygousVariant}, observed)
	assert.Equal(t, Extract(annotation.Default(), text), observed)
}

func TestExtractReader_OverlongAnnotatedRecordSkipped(t *testing.T) {
	longInfo := strings.Repeat("A", maxLineSize)
	text := "22\t1\trs4244285\tG\tA\t50\tPASS\t" + longInfo + "\tGT\t0/1\n" +
		"22\t42128945\trs3892097\tC\tT\t50\tPASS\t.\tGT\t1/1"

	observed, err := ExtractReader(annotation.Default(), strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, domain.ObservedGenotypes{"rs3892097": domain.HomozygousVariant}, observed)
}

func TestExtractReader_LineAtLimitKept(t *testing.T) {
	prefix := "22\t1\trs3892097\tC\tT\t50\tPASS\t"
	suffix := "\tGT\t1/1"
	info := strings.Repeat("A", maxLineSize-len(prefix)-len(suffix))
	text := prefix + info + suffix + "\n"

	observed, err := ExtractReader(annotation.Default(), strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, domain.HomozygousVariant, observed["rs3892097"])
}
