package csv

import (
	"errors"
	"fmt"
	"iter"

	"csvrecord/internal/linesource"
	"csvrecord/internal/schema"
	"csvrecord/pkg/records"
)

type iterState uint8

const (
	stateOpen iterState = iota
	stateExhausted
	stateClosed
)

// Iterator yields one mapped record per Next. HasNext reads ahead at most one
// line and buffers it, so repeated HasNext calls never advance the stream.
//
// An Iterator owns its source and must be used by one goroutine at a time.
type Iterator struct {
	src   linesource.Source
	desc  schema.Descriptor
	sep   string
	skip  int
	state iterState

	peeked bool
	line   string
	perr   error
	lineNo int
	closed bool
}

// NewIterator starts a streaming session over src. The first
// opt.SkipHeaders lines are discarded on the first HasNext.
func NewIterator(src linesource.Source, desc schema.Descriptor, opt Options) *Iterator {
	return &Iterator{
		src:  src,
		desc: desc,
		sep:  opt.sep(),
		skip: opt.SkipHeaders,
	}
}

// HasNext reports whether Next will produce a record or an error. Once the
// source is exhausted it keeps returning false.
func (it *Iterator) HasNext() bool {
	if it.state != stateOpen {
		return false
	}
	if it.peeked {
		return true
	}
	for {
		line, err := it.src.ReadLine()
		if errors.Is(err, linesource.ErrEndOfStream) {
			it.state = stateExhausted
			return false
		}
		if err == nil {
			it.lineNo++
			if it.skip > 0 {
				it.skip--
				continue
			}
		}
		it.line, it.perr, it.peeked = line, err, true
		return true
	}
}

// Next maps the record announced by the last HasNext. Mapping errors are
// scoped to that record and leave the iterator usable; read failures end
// the session.
func (it *Iterator) Next() (records.Record, error) {
	if it.state == stateClosed {
		return nil, &Error{Kind: KindClosedResource, Err: linesource.ErrClosed}
	}
	if !it.peeked {
		if it.state == stateExhausted {
			return nil, &Error{Kind: KindNoSuchElement, Err: ErrEndOfStream}
		}
		return nil, &Error{Kind: KindNoSuchElement}
	}
	line, err := it.line, it.perr
	it.peeked, it.line, it.perr = false, "", nil

	if err != nil {
		if errors.Is(err, linesource.ErrClosed) {
			it.state = stateClosed
			return nil, &Error{Kind: KindClosedResource, Err: err}
		}
		it.state = stateExhausted
		return nil, fmt.Errorf("read: %w", err)
	}

	rec, err := MapRow(Tokenize(line, it.sep), it.desc)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", it.lineNo, err)
	}
	return rec, nil
}

// All adapts the iterator to a range-over-func sequence. Iteration stops
// when the consumer breaks or the stream ends; row errors are yielded.
func (it *Iterator) All() iter.Seq2[records.Record, error] {
	return func(yield func(records.Record, error) bool) {
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Line returns the number of input lines consumed, headers included.
func (it *Iterator) Line() int { return it.lineNo }

// Close ends the session and closes the source. Further calls are no-ops.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.state = stateClosed
	it.peeked, it.line, it.perr = false, "", nil
	return it.src.Close()
}
