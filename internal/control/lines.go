// Package control reads operator input from the line-oriented control channel.
package control

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// ErrClosed is returned once the underlying reader is exhausted.
var ErrClosed = errors.New("control channel closed")

type line struct {
	text string
	err  error
}

// Reader hands out one trimmed line per Next call. A single goroutine owns
// the underlying reader and only reads when asked, so reads never overlap
// and never run ahead of the caller.
type Reader struct {
	reqs chan struct{}
	resp chan line
	done chan struct{}
}

// NewReader starts the reading goroutine for r. The goroutine exits when r
// reports EOF or an error.
func NewReader(r io.Reader) *Reader {
	lr := &Reader{
		reqs: make(chan struct{}),
		resp: make(chan line, 1),
		done: make(chan struct{}),
	}
	go lr.loop(bufio.NewReader(r))
	return lr
}

func (lr *Reader) loop(br *bufio.Reader) {
	defer close(lr.done)
	for range lr.reqs {
		s, err := br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err == io.EOF {
			err = ErrClosed
		}
		lr.resp <- line{text: strings.TrimSpace(s), err: err}
		if err != nil {
			return
		}
	}
}

// Next blocks until the next line arrives or ctx is done. Calls must not
// overlap; a Next abandoned by ctx leaves its line to the following call.
func (lr *Reader) Next(ctx context.Context) (string, error) {
	select {
	case l := <-lr.resp:
		return l.text, l.err
	default:
	}
	select {
	case lr.reqs <- struct{}{}:
	case l := <-lr.resp:
		return l.text, l.err
	case <-lr.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case l := <-lr.resp:
		return l.text, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
