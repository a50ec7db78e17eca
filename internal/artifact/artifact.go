// Package artifact models pipeline output files and the deterministic
// naming scheme that lets later stages locate their inputs without a
// central index.
package artifact

import (
	"path/filepath"
	"strings"
)

// Artifact is a file or directory produced or consumed by a pipeline
// stage. Every artifact except the original inputs has exactly one
// DerivedFrom parent, forming a lineage chain back to a raw input.
// Artifacts are immutable once the producing stage completes.
type Artifact struct {
	// Path is the absolute or working-dir-relative location on disk.
	Path string

	// OriginStage names the stage that produced the artifact. Empty for
	// raw pipeline inputs.
	OriginStage string

	// DerivedFrom is the parent artifact this one was derived from.
	// Nil for raw inputs.
	DerivedFrom *Artifact
}

// Input creates a raw input artifact with no lineage.
func Input(path string) *Artifact {
	return &Artifact{Path: path}
}

// Base returns the file name of the artifact without its directory.
func (a *Artifact) Base() string {
	return filepath.Base(a.Path)
}

// Root walks the lineage chain and returns the original raw input.
func (a *Artifact) Root() *Artifact {
	cur := a
	for cur.DerivedFrom != nil {
		cur = cur.DerivedFrom
	}
	return cur
}

// Lineage returns the derivation chain from the raw input to this
// artifact, oldest first.
func (a *Artifact) Lineage() []*Artifact {
	var chain []*Artifact
	for cur := a; cur != nil; cur = cur.DerivedFrom {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// knownExtensions are stripped before a derivation suffix is appended,
// so chained derivations stay readable:
// sample.fna -> sample-fecal.fna -> sample-fecal-bloomed.fna.
var knownExtensions = []string{".fna", ".fasta", ".fa", ".fastq", ".fq", ".txt", ".biom"}

// splitKnownExt splits name into (stem, ext) where ext is one of the
// known sequence-file extensions, or ("name", "") if none matches.
func splitKnownExt(name string) (string, string) {
	lower := strings.ToLower(name)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)], name[len(name)-len(ext):]
		}
	}
	return name, ""
}

// Stem returns the artifact's file name with any known extension removed.
func (a *Artifact) Stem() string {
	stem, _ := splitKnownExt(a.Base())
	return stem
}

// Derive produces the output artifact for a stage transformation of in.
// The derivation is pure and deterministic: the same input, stage, and
// suffix always yield the same path, so idempotent re-runs overwrite
// rather than duplicate. The suffix is inserted before the input's
// extension: sample.fna + "fecal" -> sample-fecal.fna.
func Derive(in *Artifact, stage, suffix string) *Artifact {
	stem, ext := splitKnownExt(in.Path)
	return &Artifact{
		Path:        stem + "-" + suffix + ext,
		OriginStage: stage,
		DerivedFrom: in,
	}
}

// DeriveIn is Derive with the output relocated into dir. Used for the
// first derivation of a raw input living outside the working directory;
// all later derivations stay inside it.
func DeriveIn(in *Artifact, dir, stage, suffix string) *Artifact {
	stem, ext := splitKnownExt(filepath.Base(in.Path))
	return &Artifact{
		Path:        filepath.Join(dir, stem+"-"+suffix+ext),
		OriginStage: stage,
		DerivedFrom: in,
	}
}

// DeriveDir produces a directory output artifact for stages whose tool
// writes an output tree rather than a single file (closed-reference
// clustering). No extension is appended.
func DeriveDir(in *Artifact, stage, suffix string) *Artifact {
	stem, _ := splitKnownExt(in.Path)
	return &Artifact{
		Path:        stem + "-" + suffix,
		OriginStage: stage,
		DerivedFrom: in,
	}
}

// Child addresses a file at a deterministic relative path inside a
// directory artifact, preserving lineage. Used for tool outputs that
// live at a fixed location inside an output directory, like the
// cluster-assignment map of a closed-reference clustering run.
func Child(dir *Artifact, rel string) *Artifact {
	return &Artifact{
		Path:        filepath.Join(dir.Path, rel),
		OriginStage: dir.OriginStage,
		DerivedFrom: dir,
	}
}
