package collector

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultSource    = "mock-pod"
	defaultNamespace = "default"

	// maxLineBytes bounds a single log line; anything longer is truncated
	// rather than rejected so one runaway line cannot stall a cycle.
	maxLineBytes = 8 << 10
)

// FileFeed reads log records from a static file. Plain-text files yield one
// record per non-blank line attributed to a fixed mock source. CSV files
// with a "source,log_message" header (optional "namespace" column) let
// fixtures exercise per-source behavior such as the legacy cascade path.
type FileFeed struct {
	path string
	now  func() time.Time
}

// NewFileFeed creates a feed reading from path. The file is re-read on every
// Fetch so a refresh cycle picks up appended lines.
func NewFileFeed(path string) *FileFeed {
	return &FileFeed{path: path, now: time.Now}
}

// Fetch reads all records from the backing file. A missing file yields a
// single marker record instead of an error so the pipeline keeps cycling
// until the feed appears.
func (f *FileFeed) Fetch(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return []Record{{
			Source:     defaultSource,
			Namespace:  defaultNamespace,
			Message:    fmt.Sprintf("No log file found at %s. Create it to start collection.", f.path),
			CapturedAt: f.now().UTC(),
		}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening log feed: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(f.path), ".csv") {
		return f.readCSV(file)
	}
	return f.readLines(file)
}

func (f *FileFeed) readLines(r io.Reader) ([]Record, error) {
	captured := f.now().UTC()
	br := bufio.NewReader(r)

	var records []Record
	for {
		line, err := readLine(br)
		if msg := strings.TrimSpace(line); msg != "" {
			records = append(records, Record{
				Source:     defaultSource,
				Namespace:  defaultNamespace,
				Message:    msg,
				CapturedAt: captured,
			})
		}
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading log feed: %w", err)
		}
	}
}

// readLine returns the next line clipped to maxLineBytes, backing up to a
// rune boundary at the cut. The remainder of an oversized line is drained so
// the following record still starts at a real line boundary.
func readLine(br *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		chunk, isPrefix, err := br.ReadLine()
		if room := maxLineBytes - b.Len(); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
				for len(chunk) > 0 {
					if r, _ := utf8.DecodeLastRune(chunk); r != utf8.RuneError {
						break
					}
					chunk = chunk[:len(chunk)-1]
				}
			}
			b.Write(chunk)
		}
		if err != nil || !isPrefix {
			return b.String(), err
		}
	}
}

// readCSV parses a header-led CSV feed. Required columns: source and
// log_message; a namespace column is honored when present.
func (f *FileFeed) readCSV(r io.Reader) ([]Record, error) {
	captured := f.now().UTC()
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	sourceIdx, messageIdx, namespaceIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source":
			sourceIdx = i
		case "log_message", "log", "message":
			messageIdx = i
		case "namespace":
			namespaceIdx = i
		}
	}
	if sourceIdx < 0 || messageIdx < 0 {
		return nil, fmt.Errorf("CSV feed %s: missing source or log_message column", f.path)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if messageIdx >= len(row) || sourceIdx >= len(row) {
			continue
		}
		message := strings.TrimSpace(row[messageIdx])
		if message == "" {
			continue
		}
		source := strings.TrimSpace(row[sourceIdx])
		if source == "" {
			source = defaultSource
		}
		namespace := defaultNamespace
		if namespaceIdx >= 0 && namespaceIdx < len(row) && strings.TrimSpace(row[namespaceIdx]) != "" {
			namespace = strings.TrimSpace(row[namespaceIdx])
		}
		records = append(records, Record{
			Source:     source,
			Namespace:  namespace,
			Message:    message,
			CapturedAt: captured,
		})
	}
	return records, nil
}
