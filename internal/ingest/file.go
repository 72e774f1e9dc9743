// Package ingest hosts the input sources feeding events into the tracker:
// a batch JSONL file reader and a streaming websocket client.
package ingest

import (
	"fmt"
	"os"

	"github.com/rajnet70/Pingr-ml-insights/internal/event"
)

// LoadFile reads every event from a newline-delimited JSON log. A missing or
// unreadable file is a hard error; malformed lines inside it are skipped and
// counted in the returned stats.
func LoadFile(path string) ([]event.Event, event.Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, event.Stats{}, fmt.Errorf("open alert log: %w", err)
	}
	defer file.Close()

	events, stats, err := event.DecodeLines(file)
	if err != nil {
		return events, stats, fmt.Errorf("read alert log: %w", err)
	}
	return events, stats, nil
}
