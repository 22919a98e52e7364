// Package reportstore keeps finished import reports so they can be fetched
// by ID after the upload request has returned.
package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/contactimport/internal/core"
)

// DefaultTTL is how long a report is retained when no TTL is configured.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "contactimport:report:"

// Redis stores reports as JSON strings with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client. A non-positive ttl uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) key(id string) string {
	return keyPrefix + id
}

// Save stores report under its ID.
func (r *Redis) Save(ctx context.Context, report *core.ImportReport) error {
	if report.ID == "" {
		return errors.New("report has no ID")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := r.client.Set(ctx, r.key(report.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store report %s: %w", report.ID, err)
	}
	return nil
}

// Get returns the report with id, or core.ErrImportNotFound.
func (r *Redis) Get(ctx context.Context, id string) (*core.ImportReport, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", core.ErrImportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}

	var report core.ImportReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

// Memory keeps reports in process memory. It is used when no Redis URL is
// configured; reports do not survive a restart.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	reports map[string]memoryEntry
}

type memoryEntry struct {
	report    core.ImportReport
	expiresAt time.Time
}

// NewMemory returns an empty in-memory store. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, reports: make(map[string]memoryEntry)}
}

// Save stores a copy of report. Expired entries are swept on each call.
func (m *Memory) Save(_ context.Context, report *core.ImportReport) error {
	if report.ID == "" {
		return errors.New("report has no ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, e := range m.reports {
		if now.After(e.expiresAt) {
			delete(m.reports, id)
		}
	}

	cp := *report
	cp.Messages = append([]string(nil), report.Messages...)
	m.reports[report.ID] = memoryEntry{report: cp, expiresAt: now.Add(m.ttl)}
	return nil
}

// Get returns a copy of the report with id, or core.ErrImportNotFound.
func (m *Memory) Get(_ context.Context, id string) (*core.ImportReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.reports[id]
	if !ok || m.now().After(e.expiresAt) {
		return nil, fmt.Errorf("%w: %s", core.ErrImportNotFound, id)
	}
	cp := e.report
	cp.Messages = append([]string(nil), e.report.Messages...)
	return &cp, nil
}
