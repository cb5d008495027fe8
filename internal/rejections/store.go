package rejections

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"marketplace-catalog/internal/schemagate"
)

// Log appends rejection records to one JSONL file per day under dir.
type Log struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewLog(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

// Write appends the rejections of one ingest batch.
func (l *Log) Write(ctx context.Context, batchID string, rejections []schemagate.Rejection) error {
	if len(rejections) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	now := l.now().UTC()
	fpath := filepath.Join(l.dir, fmt.Sprintf("rejections_%s.jsonl", now.Format("2006-01-02")))
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, rej := range rejections {
		record := map[string]any{
			"scope":     rej.Scope,
			"reason":    rej.Reason,
			"batch_id":  batchID,
			"timestamp": now.Format(time.RFC3339Nano),
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}
