// Package trim implements the local fixed-length truncation step. It
// runs synchronously on the submit host between scheduled stages and
// never goes through the cluster scheduler or the stage barrier.
package trim

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kiti15237/American-Gut/internal/seqio"
	"github.com/kiti15237/American-Gut/internal/types"
)

// Trimmer truncates sequence records to a fixed length.
type Trimmer struct {
	// Length is the truncation length in nucleotides. Records at or
	// below it pass through unchanged.
	Length int

	logger *slog.Logger
}

// NewTrimmer creates a Trimmer for the given length.
func NewTrimmer(length int, logger *slog.Logger) *Trimmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trimmer{Length: length, logger: logger}
}

// TrimFile reads the FASTA file at in and writes the truncated records
// to out, overwriting any previous output. IO problems surface as
// LOCAL_IO_FAILED for the caller to aggregate per dataset.
func (t *Trimmer) TrimFile(in, out string) error {
	src, err := os.Open(in)
	if err != nil {
		return types.WrapError(types.LOCAL_IO_FAILED, fmt.Sprintf("cannot read %s", in), err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return types.WrapError(types.LOCAL_IO_FAILED, fmt.Sprintf("cannot write %s", out), err)
	}
	defer dst.Close()

	records, trimmed, err := t.trim(src, dst)
	if err != nil {
		return types.WrapError(types.LOCAL_IO_FAILED, fmt.Sprintf("trimming %s", in), err)
	}

	if err := dst.Close(); err != nil {
		return types.WrapError(types.LOCAL_IO_FAILED, fmt.Sprintf("cannot write %s", out), err)
	}

	t.logger.Info("trimmed dataset",
		"input", in,
		"output", out,
		"length_nt", t.Length,
		"records", records,
		"truncated", trimmed,
	)
	return nil
}

// trim copies records from r to w, truncating as needed. Returns the
// total record count and how many were actually shortened.
func (t *Trimmer) trim(r io.Reader, w io.Writer) (records, trimmed int, err error) {
	reader := seqio.NewReader(r)
	writer := seqio.NewWriter(w)

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, trimmed, nil
		}
		if err != nil {
			return records, trimmed, err
		}

		if len(rec.Seq) > t.Length {
			rec.Seq = rec.Seq[:t.Length]
			trimmed++
		}
		records++

		if err := writer.Write(rec); err != nil {
			return records, trimmed, err
		}
	}
}
