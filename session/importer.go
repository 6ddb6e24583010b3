package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/storage"
)

// LogEntry is one parsed query log line.
type LogEntry struct {
	SessionID  string
	Timestamp  time.Time
	Query      string
	Hits       int
	Goal       core.Classification
	HasGoal    bool
	Suggestion string
}

// ParseLogLine parses a tab-separated query log line:
//
//	session-id  timestamp-ms  query  hits  [goal|nogoal  [suggestion]]
//
// A negative or "?" hit count means the hits are unknown.
func ParseLogLine(line string) (LogEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 4 || len(fields) > 6 {
		return LogEntry{}, fmt.Errorf("%w: expected 4 to 6 fields, got %d", ErrMalformedLogLine, len(fields))
	}

	entry := LogEntry{
		SessionID: strings.TrimSpace(fields[0]),
		Query:     strings.TrimSpace(fields[2]),
	}
	if entry.SessionID == "" {
		return LogEntry{}, fmt.Errorf("%w: empty session id", ErrMalformedLogLine)
	}
	if entry.Query == "" {
		return LogEntry{}, fmt.Errorf("%w: empty query", ErrMalformedLogLine)
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return LogEntry{}, fmt.Errorf("%w: timestamp: %w", ErrMalformedLogLine, err)
	}
	entry.Timestamp = time.UnixMilli(ms)

	hits := strings.TrimSpace(fields[3])
	if hits == "?" {
		entry.Hits = core.UnknownHits
	} else {
		n, err := strconv.Atoi(hits)
		if err != nil {
			return LogEntry{}, fmt.Errorf("%w: hits: %w", ErrMalformedLogLine, err)
		}
		entry.Hits = max(n, core.UnknownHits)
	}

	if len(fields) > 4 {
		switch strings.ToLower(strings.TrimSpace(fields[4])) {
		case "", "-":
		case "goal":
			entry.Goal, entry.HasGoal = core.Goal, true
		case "nogoal":
			entry.Goal, entry.HasGoal = core.NoPartOfGoal, true
		default:
			return LogEntry{}, fmt.Errorf("%w: unknown goal marker %q", ErrMalformedLogLine, fields[4])
		}
	}
	if len(fields) > 5 {
		entry.Suggestion = strings.TrimSpace(fields[5])
	}
	return entry, nil
}

// ImportStats summarizes an import.
type ImportStats struct {
	Lines    int
	Queries  int
	Sessions int
}

// Importer loads query logs into a Manager.
type Importer struct {
	manager *Manager
	logger  *slog.Logger
}

// NewImporter creates an Importer writing to manager.
func NewImporter(manager *Manager, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{manager: manager, logger: logger.With("component", "importer")}
}

// Import reads a query log. Consecutive lines with the same session id form
// one session whose queries chain in order; a session id that reappears later
// continues the stored session. Blank lines and lines starting with '#' are
// skipped. Each session is stored when its run of lines ends.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	var stats ImportStats
	var current *core.QuerySession

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := im.manager.Put(ctx, current); err != nil {
			return err
		}
		current = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.Lines++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := ParseLogLine(line)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", stats.Lines, err)
		}

		if current == nil || current.ID != entry.SessionID {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := flush(); err != nil {
				return stats, err
			}
			current, err = im.open(ctx, entry.SessionID)
			if err != nil {
				return stats, err
			}
			stats.Sessions++
		}

		idx := current.Query(entry.Query, entry.Hits, entry.Suggestion, entry.Timestamp)
		if entry.HasGoal {
			if err := current.Inspect(idx, "import", entry.Goal, entry.Timestamp); err != nil {
				return stats, err
			}
		}
		stats.Queries++
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}
	if err := flush(); err != nil {
		return stats, err
	}

	im.logger.Info("imported query log", "lines", stats.Lines, "queries", stats.Queries, "sessions", stats.Sessions)
	return stats, nil
}

func (im *Importer) open(ctx context.Context, id string) (*core.QuerySession, error) {
	s, err := im.manager.Get(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return core.NewQuerySession(id, im.manager.Expiration()), nil
}
