package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"meeting-assistant-sidecar/internal/observability/logging"
)

// maxLineBytes bounds one inbound message line. Base64 audio chunks are
// the largest payloads; 64 MiB covers several minutes of uncompressed WAV.
const maxLineBytes = 64 * 1024 * 1024

// Dispatcher reads newline-delimited JSON messages, handles them one at a
// time and writes one JSON response line per message. Handling is strictly
// sequential so store read-modify-write cycles never interleave.
type Dispatcher struct {
	handlers *Handlers
	in       io.Reader
	out      io.Writer
}

// NewDispatcher creates a dispatcher over the given reader/writer pair,
// normally stdin and stdout.
func NewDispatcher(handlers *Handlers, in io.Reader, out io.Writer) *Dispatcher {
	return &Dispatcher{handlers: handlers, in: in, out: out}
}

// Run processes messages until the input is exhausted, the context is
// cancelled, or the input fails. Blank lines are skipped.
func (d *Dispatcher) Run(ctx context.Context) error {
	logger := logging.WithComponent("ipc")

	scanner := bufio.NewScanner(d.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	enc := json.NewEncoder(d.out)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		resp := d.handlers.Handle(ctx, line)
		if err := enc.Encode(resp); err != nil {
			logger.Error().Err(err).Msg("Failed to write response")
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Msg("Input stream error")
		return err
	}
	logger.Info().Msg("Input stream closed, dispatcher exiting")
	return nil
}
