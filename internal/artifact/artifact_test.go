package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_StripsKnownExtension(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		suffix   string
		expected string
	}{
		{"fna", "sample.fna", "fecal", "sample-fecal.fna"},
		{"fasta", "reads.fasta", "nobloom", "reads-nobloom.fasta"},
		{"no extension", "seqs", "fecal", "seqs-fecal"},
		{"unknown extension kept", "archive.tar", "fecal", "archive.tar-fecal"},
		{"with directory", "/data/run1/sample.fna", "fecal", "/data/run1/sample-fecal.fna"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Derive(Input(tt.input), "fecal-filter", tt.suffix)
			assert.Equal(t, tt.expected, out.Path)
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	in := Input("sample.fna")

	first := Derive(in, "fecal-filter", "fecal")
	second := Derive(in, "fecal-filter", "fecal")

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.OriginStage, second.OriginStage)
}

func TestDerive_Chained(t *testing.T) {
	raw := Input("sample.fna")
	fecal := Derive(raw, "fecal-filter", "fecal")
	bloomed := Derive(fecal, "bloom-detect", "bloomed")

	assert.Equal(t, "sample-fecal.fna", fecal.Path)
	assert.Equal(t, "sample-fecal-bloomed.fna", bloomed.Path)
}

func TestDerive_Lineage(t *testing.T) {
	raw := Input("sample.fna")
	fecal := Derive(raw, "fecal-filter", "fecal")
	nobloom := Derive(raw, "bloom-remove", "nobloom")
	trimmed := Derive(nobloom, "trim", "100nt")

	assert.Equal(t, raw, trimmed.Root())
	assert.Equal(t, raw, fecal.Root())

	chain := trimmed.Lineage()
	require.Len(t, chain, 3)
	assert.Equal(t, "sample.fna", chain[0].Path)
	assert.Equal(t, "sample-nobloom.fna", chain[1].Path)
	assert.Equal(t, "sample-nobloom-100nt.fna", chain[2].Path)
}

func TestDeriveIn(t *testing.T) {
	raw := Input("/data/raw/round1.fna")
	fecal := DeriveIn(raw, "/data/run1", "fecal-filter", "fecal")

	assert.Equal(t, "/data/run1/round1-fecal.fna", fecal.Path)
	assert.Equal(t, raw, fecal.DerivedFrom)
}

func TestDeriveDir(t *testing.T) {
	fecal := Derive(Input("sample.fna"), "fecal-filter", "fecal")
	dir := DeriveDir(fecal, "bloom-detect", "bloomed")

	assert.Equal(t, "sample-fecal-bloomed", dir.Path)
	assert.Equal(t, "bloom-detect", dir.OriginStage)
	assert.Equal(t, fecal, dir.DerivedFrom)
}

func TestChild(t *testing.T) {
	fecal := Derive(Input("sample.fna"), "fecal-filter", "fecal")
	dir := DeriveDir(fecal, "bloom-detect", "bloomed")
	otuMap := Child(dir, "uclust_ref_picked_otus/sample-fecal_otus.txt")

	assert.Equal(t, "sample-fecal-bloomed/uclust_ref_picked_otus/sample-fecal_otus.txt", otuMap.Path)
	assert.Equal(t, dir, otuMap.DerivedFrom)
	assert.Equal(t, "sample.fna", otuMap.Root().Path)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "sample-fecal", Derive(Input("/data/sample.fna"), "fecal-filter", "fecal").Stem())
	assert.Equal(t, "sample", Input("sample").Stem())
}

func TestDerive_DisjointOutputs(t *testing.T) {
	// Two fan-out items must never target the same output path.
	a := Derive(Input("/data/sampleA.fna"), "fecal-filter", "fecal")
	b := Derive(Input("/data/sampleB.fna"), "fecal-filter", "fecal")

	assert.NotEqual(t, a.Path, b.Path)
}
