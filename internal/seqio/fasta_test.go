package seqio

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string) []Record {
	t.Helper()
	r := NewReader(strings.NewReader(input))
	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
}

func TestReader_SingleRecord(t *testing.T) {
	records := readAll(t, ">seq1 sample A\nACGTACGT\n")

	require.Len(t, records, 1)
	assert.Equal(t, "seq1", records[0].ID)
	assert.Equal(t, "sample A", records[0].Desc)
	assert.Equal(t, "ACGTACGT", records[0].Seq)
}

func TestReader_MultilineSequence(t *testing.T) {
	records := readAll(t, ">seq1\nACGT\nACGT\n\nTTTT\n>seq2\nGGGG\n")

	require.Len(t, records, 2)
	assert.Equal(t, "ACGTACGTTTTT", records[0].Seq)
	assert.Equal(t, "GGGG", records[1].Seq)
}

func TestReader_Empty(t *testing.T) {
	assert.Empty(t, readAll(t, ""))
	assert.Empty(t, readAll(t, "\n\n"))
}

func TestReader_MissingHeader(t *testing.T) {
	r := NewReader(strings.NewReader("ACGT\n"))
	_, err := r.Next()
	assert.Error(t, err)
}

func TestWriter_RoundTrip(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)

	require.NoError(t, w.Write(Record{ID: "seq1", Desc: "sample A", Seq: "ACGT"}))
	require.NoError(t, w.Write(Record{ID: "seq2", Seq: "TTTT"}))

	assert.Equal(t, ">seq1 sample A\nACGT\n>seq2\nTTTT\n", sb.String())

	records := readAll(t, sb.String())
	require.Len(t, records, 2)
	assert.Equal(t, "seq1", records[0].ID)
	assert.Equal(t, "TTTT", records[1].Seq)
}
