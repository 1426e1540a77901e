package db

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"affiliate/kit/broker"
	"affiliate/kit/observability"
)

// Record is one stored event. IDs are ULIDs so records sort by time.
type Record struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	EventName   string          `json:"event_name"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Store is an append-only event log grouped by aggregate, optionally
// mirrored to a JSON-lines file that is replayed on open.
type Store struct {
	logger *observability.Logger

	mu      sync.RWMutex
	streams map[string][]Record
	log     []Record

	fileMu sync.Mutex
	f      *os.File

	now func() time.Time
}

func NewStore(logger *observability.Logger) *Store {
	return &Store{logger: logger, streams: make(map[string][]Record), now: time.Now}
}

func NewStoreWithFile(logger *observability.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Error("store error", "layer", "store", "component", "db", "method", "NewStoreWithFile", "path", path, "error", err.Error())
		return nil, errors.Join(ErrInternal, err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		logger.Error("store error", "layer", "store", "component", "db", "method", "NewStoreWithFile", "path", path, "error", err.Error())
		return nil, errors.Join(ErrInternal, err)
	}

	s := NewStore(logger)
	s.f = f
	if err := s.replay(f); err != nil {
		_ = f.Close()
		logger.Error("store error", "layer", "store", "component", "db", "method", "NewStoreWithFile", "path", path, "error", err.Error())
		return nil, errors.Join(ErrInternal, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return nil, errors.Join(ErrInternal, err)
	}
	return s, nil
}

func (s *Store) replay(f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		s.mu.Lock()
		s.streams[rec.AggregateID] = append(s.streams[rec.AggregateID], rec)
		s.log = append(s.log, rec)
		s.mu.Unlock()
	}
	return scanner.Err()
}

func (s *Store) Close() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	if err != nil {
		s.logger.Error("store error", "layer", "store", "component", "db", "method", "Close", "error", err.Error())
	}
	s.f = nil
	return err
}

// Append records evt under aggregateID. File write failures are logged and
// do not fail the append; the in-memory log stays authoritative.
func (s *Store) Append(ctx context.Context, aggregateID string, evt broker.Event) (Record, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("store error", "layer", "store", "component", "db", "method", "Append", "aggregate_id", aggregateID, "event", evt.Name(), "error", err.Error())
		return Record{}, errors.Join(ErrInvalid, err)
	}

	occurredAt := s.now().UTC()
	rec := Record{
		ID:          ulid.MustNew(ulid.Timestamp(occurredAt), ulid.DefaultEntropy()).String(),
		AggregateID: aggregateID,
		EventName:   evt.Name(),
		Payload:     payload,
		OccurredAt:  occurredAt,
	}

	s.mu.Lock()
	s.streams[aggregateID] = append(s.streams[aggregateID], rec)
	s.log = append(s.log, rec)
	s.mu.Unlock()

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.f == nil {
		return rec, nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("store error", "layer", "store", "component", "db", "method", "Append", "aggregate_id", aggregateID, "event", evt.Name(), "error", err.Error())
		return rec, nil
	}
	if _, err := s.f.Write(append(b, '\n')); err != nil {
		s.logger.Error("store error", "layer", "store", "component", "db", "method", "Append", "aggregate_id", aggregateID, "event", evt.Name(), "error", err.Error())
	}
	return rec, nil
}

func (s *Store) Load(ctx context.Context, aggregateID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.streams[aggregateID]...)
}

func (s *Store) All(ctx context.Context) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.log...)
}
