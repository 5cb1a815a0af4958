package monitor

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Source produces screen signals until it is exhausted or ctx is done.
// Run returns nil when the source ends normally.
type Source interface {
	Run(ctx context.Context, emit func(Signal)) error
}

// LineSource reads one signal per line from a reader (stdin, a FIFO, a
// log tail).
//
// Line format:
//
//	<kind>
//	<RFC3339 timestamp> <kind>
//
// Blank lines and lines starting with '#' are ignored. Unknown kinds are
// logged and skipped.
type LineSource struct {
	r io.Reader
}

// NewLineSource creates a LineSource over r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

// Run scans lines until EOF or cancellation.
//
// The reader is consumed on a separate goroutine because a blocking Read
// cannot observe ctx. On cancellation that goroutine exits at the next line
// or when the reader is closed by its owner.
func (s *LineSource) Run(ctx context.Context, emit func(Signal)) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if sig, ok := parseLine(line); ok {
				emit(sig)
			}
		}
	}
}

func parseLine(line string) (Signal, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Signal{}, false
	}

	var at time.Time
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		if t, err := time.Parse(time.RFC3339Nano, fields[0]); err == nil {
			at = t
			fields = fields[1:]
		}
	}

	kind, err := ParseKind(strings.Join(fields, " "))
	if err != nil {
		slog.Warn("screen signal ignored", "line", line, "error", err)
		return Signal{}, false
	}
	return Signal{Kind: kind, At: at}, true
}
