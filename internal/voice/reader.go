package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ReaderEngine reads newline-delimited transcripts. Blank lines are skipped.
type ReaderEngine struct {
	Open func() (io.ReadCloser, error)
	// Reopen restarts the stream after EOF instead of ending with
	// ErrEndOfStream.
	Reopen bool
}

// NewReaderEngine serves r once.
func NewReaderEngine(r io.Reader) *ReaderEngine {
	var once sync.Once
	return &ReaderEngine{
		Open: func() (io.ReadCloser, error) {
			var rc io.ReadCloser
			once.Do(func() { rc = io.NopCloser(r) })
			if rc == nil {
				return nil, ErrEndOfStream
			}
			return rc, nil
		},
	}
}

func (e *ReaderEngine) Listen(ctx context.Context, onTranscript func(string)) error {
	rc, err := e.Open()
	if err != nil {
		return fmt.Errorf("failed to open transcript stream: %w", err)
	}
	defer rc.Close()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(rc)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return e.ended(errc)
			}
			if line = strings.TrimSpace(line); line != "" {
				onTranscript(line)
			}
		}
	}
}

func (e *ReaderEngine) ended(errc <-chan error) error {
	var err error
	select {
	case err = <-errc:
	default:
	}
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	if e.Reopen {
		return nil
	}
	return ErrEndOfStream
}
