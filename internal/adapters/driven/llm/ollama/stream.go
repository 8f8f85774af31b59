package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

// errorLineFunc turns the "error" field of a stream line into the error
// that ends the stream.
type errorLineFunc func(msg string) error

// serverError is the default errorLineFunc.
func serverError(msg string) error {
	return fmt.Errorf("ollama: %s", msg)
}

// decodeFunc turns one JSON line into an event and reports whether it is
// the terminal event of the stream.
type decodeFunc[T any] func(line []byte) (event T, done bool, err error)

// streamEvents posts body to path and delivers decoded events in order.
// A line carrying an "error" field ends the stream with onErrorLine's error.
// The event channel closes first; the error channel then yields at most
// one error and closes.
func streamEvents[T any](
	ctx context.Context,
	c *Client,
	path string,
	body any,
	decode decodeFunc[T],
	onErrorLine errorLineFunc,
) (<-chan T, <-chan error) {
	events := make(chan T)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(events)

		resp, err := c.post(ctx, path, body)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		err = readLines(ctx, resp.Body, func(line []byte) (bool, error) {
			if msg := lineError(line); msg != "" {
				return false, onErrorLine(msg)
			}
			event, done, err := decode(line)
			if err != nil {
				return false, err
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return false, cancelled(ctx)
			}
			return done, nil
		})
		if err != nil {
			errs <- fmt.Errorf("%s: %w", path, err)
		}
	}()

	return events, errs
}

// readLines reads newline-delimited records from r and hands each non-empty
// line to handle, without its line terminator. A final line without a
// newline is still handled. Reading stops when handle reports done.
// Reaching EOF first yields ErrStreamTruncated.
func readLines(ctx context.Context, r io.Reader, handle func(line []byte) (done bool, err error)) error {
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if trimmed := bytes.TrimRight(line, "\r\n"); len(bytes.TrimSpace(trimmed)) > 0 {
			done, err := handle(trimmed)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
		if readErr == nil {
			continue
		}
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		if errors.Is(readErr, io.EOF) {
			return domain.ErrStreamTruncated
		}
		return fmt.Errorf("%w: read stream: %w", domain.ErrNetwork, readErr)
	}
}

// lineError returns the "error" field of a stream line, if any.
func lineError(line []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(line, &e) != nil {
		return ""
	}
	return e.Error
}
