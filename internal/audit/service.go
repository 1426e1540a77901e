// Package audit keeps an append-only trail of every domain event, one JSON
// object per line.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"affiliate/kit/broker"
	"affiliate/kit/observability"
)

type Entry struct {
	At    time.Time       `json:"at"`
	Event string          `json:"event"`
	Key   string          `json:"key,omitempty"`
	Data  json.RawMessage `json:"data"`
}

type Service struct {
	logger *observability.Logger
	now    func() time.Time

	fileMu sync.Mutex
	f      *os.File
}

func NewService(logger *observability.Logger) *Service {
	return &Service{logger: logger, now: time.Now}
}

func NewServiceWithFile(logger *observability.Logger, path string) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Error("audit error", "layer", "service", "component", "audit", "method", "NewServiceWithFile", "path", path, "error", err.Error())
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("audit error", "layer", "service", "component", "audit", "method", "NewServiceWithFile", "path", path, "error", err.Error())
		return nil, err
	}
	return &Service{logger: logger, now: time.Now, f: f}, nil
}

func (s *Service) Close() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	if err != nil {
		s.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Close", "error", err.Error())
	}
	s.f = nil
	return err
}

// Record logs evt and, when a trail file is open, appends it.
func (s *Service) Record(ctx context.Context, evt broker.Event) (Entry, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Record", "event", evt.Name(), "error", err.Error())
		return Entry{}, err
	}
	e := Entry{At: s.now().UTC(), Event: evt.Name(), Data: data}
	if k, ok := evt.(broker.Keyed); ok {
		e.Key = k.PartitionKey()
	}
	s.logger.Info("audit", "event", e.Event, "key", e.Key)

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.f == nil {
		return e, nil
	}
	line, err := json.Marshal(e)
	if err == nil {
		_, err = s.f.Write(append(line, '\n'))
	}
	if err != nil {
		s.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Record", "event", e.Event, "error", err.Error())
		return e, err
	}
	return e, nil
}
