// Package linesource supplies one logical record of text at a time from a
// character stream. Records end at line boundaries, or at an explicit row
// separator when one is configured.
//
// A Reader is owned by a single consumer; it does no locking.
package linesource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEndOfStream is returned by ReadLine once the input is exhausted.
	ErrEndOfStream = errors.New("end of stream")
	// ErrClosed is returned by ReadLine after Close, and wrapped by a second
	// Close.
	ErrClosed = errors.New("channel already closed")
)

// Source is the two-outcome contract the CSV reader depends on.
type Source interface {
	// ReadLine returns the next record text, ErrEndOfStream at the end, or
	// ErrClosed after Close.
	ReadLine() (string, error)
	Close() error
}

// DefaultMaxLineBytes bounds a single record.
const DefaultMaxLineBytes = 1 << 20

// Options configures a Reader. The zero value reads UTF-8 lines.
type Options struct {
	// RowSeparator, when non-empty, ends a record instead of a newline.
	RowSeparator string
	// Encoding is a WHATWG label such as "utf-8" or "windows-1250". Empty
	// means UTF-8. A leading UTF-8 BOM is always stripped.
	Encoding string
	// MaxLineBytes bounds the size of one record; 0 uses DefaultMaxLineBytes.
	MaxLineBytes int
}

// Reader implements Source over an io.ReadCloser.
type Reader struct {
	rc     io.ReadCloser
	sc     *bufio.Scanner
	line   int
	done   bool
	closed bool
}

var _ Source = (*Reader)(nil)

// New wraps rc. The Reader takes ownership of rc and closes it on Close.
func New(rc io.ReadCloser, opt Options) (*Reader, error) {
	dec, err := decoderFor(opt.Encoding)
	if err != nil {
		return nil, err
	}
	max := opt.MaxLineBytes
	if max <= 0 {
		max = DefaultMaxLineBytes
	}

	sc := bufio.NewScanner(transform.NewReader(rc, dec))
	sc.Buffer(make([]byte, 0, 64*1024), max)
	if opt.RowSeparator != "" {
		sc.Split(splitOn([]byte(opt.RowSeparator)))
	}
	return &Reader{rc: rc, sc: sc}, nil
}

// FromString is a convenience for in-memory input.
func FromString(s string, opt Options) (*Reader, error) {
	return New(io.NopCloser(strings.NewReader(s)), opt)
}

// ReadLine implements Source.
func (r *Reader) ReadLine() (string, error) {
	if r.closed {
		return "", ErrClosed
	}
	if r.done {
		return "", ErrEndOfStream
	}
	if r.sc.Scan() {
		r.line++
		return r.sc.Text(), nil
	}
	r.done = true
	if err := r.sc.Err(); err != nil {
		return "", fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	return "", ErrEndOfStream
}

// Line returns the number of records read so far.
func (r *Reader) Line() int { return r.line }

// Close releases the underlying stream. Closing twice returns an error
// wrapping ErrClosed and has no other effect.
func (r *Reader) Close() error {
	if r.closed {
		return fmt.Errorf("close: %w", ErrClosed)
	}
	r.closed = true
	if err := r.rc.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// CheckEncoding reports whether label names a supported input encoding.
func CheckEncoding(label string) error {
	_, err := decoderFor(label)
	return err
}

func decoderFor(label string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", label, err)
	}
	// BOMOverride lets a UTF BOM win over the declared encoding.
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

// splitOn cuts records at sep. Line breaks directly after a separator are
// dropped so "a;\nb;\n" yields "a", "b". An empty record between two
// separators is kept; only an empty remainder at EOF is dropped.
func splitOn(sep []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, sep); i >= 0 {
			tok := bytes.TrimLeft(data[:i], "\r\n")
			if tok == nil {
				// A nil token would make the Scanner skip the record.
				tok = data[i:i]
			}
			return i + len(sep), tok, nil
		}
		if atEOF {
			rest := bytes.TrimLeft(data, "\r\n")
			if len(rest) == 0 {
				return len(data), nil, nil
			}
			return len(data), rest, nil
		}
		return 0, nil, nil
	}
}
