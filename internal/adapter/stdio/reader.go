// Package stdio bridges the agent process over NDJSON pipes: lifecycle
// events arrive one JSON object per line on stdin, and admitted user
// messages leave as frames on stdout.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/agentpulse/agentpulse/internal/domain/dashboard"
	"github.com/agentpulse/agentpulse/internal/service"
)

// maxLineBytes caps a single event line. Message payloads carry full
// agent output, so this is well above typical SSE frame sizes.
const maxLineBytes = 1 << 20

// Reader consumes lifecycle events and feeds them to the reducer.
type Reader struct {
	r         io.Reader
	lifecycle *service.LifecycleService
}

// NewReader creates a Reader dispatching events from r.
func NewReader(r io.Reader, lc *service.LifecycleService) *Reader {
	return &Reader{r: r, lifecycle: lc}
}

// Run reads events until EOF or ctx cancellation. Malformed or
// oversized lines are logged and skipped; a broken event must never
// abort the agent.
func (rd *Reader) Run(ctx context.Context) error {
	br := bufio.NewReaderSize(rd.r, 64*1024)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, tooLong, err := readLine(br)
		if tooLong {
			slog.Warn("oversized lifecycle event skipped", "limit_bytes", maxLineBytes)
		} else {
			rd.dispatch(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (rd *Reader) dispatch(ctx context.Context, line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	var ev dashboard.Event
	if err := json.Unmarshal(line, &ev); err != nil {
		slog.Warn("malformed lifecycle event", "error", err)
		return
	}
	rd.lifecycle.HandleEvent(ctx, ev)
}

// readLine returns the next line, reporting whether it exceeded
// maxLineBytes. An oversized line is discarded through its newline so
// the stream stays aligned on event boundaries.
func readLine(br *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil || errors.Is(err, io.EOF) {
			return line, len(line) > maxLineBytes, err
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return line, false, err
		}
		if len(line) > maxLineBytes {
			return nil, true, discardLine(br)
		}
	}
}

// discardLine consumes input up to and including the next newline.
func discardLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if err == nil || !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
