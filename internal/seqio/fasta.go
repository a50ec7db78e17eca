// Package seqio provides the minimal FASTA record iteration the local
// trim step needs. It is not a general-purpose sequence format library.
package seqio

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is a single FASTA record.
type Record struct {
	// ID is the first whitespace-delimited token of the header line.
	ID string

	// Desc is the remainder of the header line after the ID.
	Desc string

	// Seq is the sequence with line breaks removed.
	Seq string
}

// Header reconstructs the record's header line without the leading '>'.
func (r Record) Header() string {
	if r.Desc == "" {
		return r.ID
	}
	return r.ID + " " + r.Desc
}

// Reader iterates FASTA records from an input stream. Sequences may
// span multiple lines.
type Reader struct {
	scanner *bufio.Scanner
	pending string
	done    bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next record, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (Record, error) {
	header := r.pending
	r.pending = ""

	for header == "" {
		if r.done || !r.scanner.Scan() {
			r.done = true
			if err := r.scanner.Err(); err != nil {
				return Record{}, err
			}
			return Record{}, io.EOF
		}
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ">") {
			return Record{}, fmt.Errorf("expected FASTA header, got %q", line)
		}
		header = line
	}

	var seq strings.Builder
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			r.pending = line
			break
		}
		seq.WriteString(line)
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, err
	}

	rec := parseHeader(header)
	rec.Seq = seq.String()
	return rec, nil
}

func parseHeader(line string) Record {
	header := strings.TrimPrefix(line, ">")
	id, desc, _ := strings.Cut(header, " ")
	return Record{ID: id, Desc: desc}
}

// Writer emits FASTA records with the sequence on a single line, which
// is what the downstream filtering tools consume.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write emits one record.
func (w *Writer) Write(rec Record) error {
	_, err := fmt.Fprintf(w.w, ">%s\n%s\n", rec.Header(), rec.Seq)
	return err
}
