package gateway

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// maxPayloadSize bounds a single inbound payload line.
const maxPayloadSize = 1 << 20

// StreamSource is a core.EventSource reading one JSON payload per line.
// Blank lines are skipped. A line longer than the payload limit is consumed
// up to its newline and reported as ErrMalformedEvent; the next call
// continues with the following line.
type StreamSource struct {
	r   *bufio.Reader
	max int
}

// NewStreamSource reads payloads from r.
func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{r: bufio.NewReaderSize(r, 64*1024), max: maxPayloadSize}
}

// Next implements core.EventSource. It returns io.EOF once r is exhausted.
// Cancellation is checked between lines; a blocked read is not interrupted.
func (s *StreamSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, tooLong, err := s.readLine()
		if tooLong {
			return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrMalformedEvent, s.max)
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return nil, io.EOF
			}
			continue
		}
		return line, nil
	}
}

// readLine reads up to and including the next newline. Once the line
// outgrows the limit its remaining bytes are discarded, not buffered.
func (s *StreamSource) readLine() ([]byte, bool, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		frag, err := s.r.ReadSlice('\n')
		if !tooLong {
			n := len(line) + len(frag)
			if len(frag) > 0 && frag[len(frag)-1] == '\n' {
				n--
			}
			if n > s.max {
				tooLong, line = true, nil
			} else {
				line = append(line, frag...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}
