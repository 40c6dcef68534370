package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/normapipe/normapipe/internal/record"
)

// Memory is an in-memory Store with the same observable semantics as the
// Postgres implementation: monotonic ids, all-or-nothing batch inserts, and
// optional unique-key enforcement over the identity columns.
type Memory struct {
	mu sync.Mutex

	// EnforceUnique makes InsertRegulations fail the whole batch with an
	// ErrDuplicate-wrapped error when a record's identity key already
	// exists, mirroring a unique constraint on the table.
	EnforceUnique bool

	// LinkErr, when set, makes LinkComponents fail. Used to exercise the
	// best-effort association path.
	LinkErr error

	nextID      int64
	regulations []storedRegulation
	links       []Link

	existingCalls int
	insertCalls   int
}

type storedRegulation struct {
	id  int64
	reg record.Regulation
}

// Link is one persisted association row.
type Link struct {
	RegulationID int64
	ComponentID  int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error { return nil }

// ExistingRegulations projects every stored row for the entity.
func (m *Memory) ExistingRegulations(ctx context.Context, entity string) ([]record.Projection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existingCalls++

	var out []record.Projection
	for _, s := range m.regulations {
		if s.reg.Entity.String != entity {
			continue
		}
		link := ""
		if s.reg.ExternalLink.Valid {
			link = s.reg.ExternalLink.String
		}
		created := ""
		if s.reg.CreatedAt.Valid {
			created = s.reg.CreatedAt.Time.Format(record.DateLayout)
		}
		out = append(out, record.Projection{
			Title:        s.reg.Title.String,
			CreatedAt:    created,
			Entity:       s.reg.Entity.String,
			ExternalLink: link,
		})
	}
	return out, nil
}

// InsertRegulations stores the batch atomically and returns assigned ids.
func (m *Memory) InsertRegulations(ctx context.Context, regs []record.Regulation) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(regs) == 0 {
		return nil, nil
	}
	m.insertCalls++

	if m.EnforceUnique {
		keys := make(map[string]struct{}, len(m.regulations))
		for _, s := range m.regulations {
			keys[s.reg.Key()] = struct{}{}
		}
		for _, r := range regs {
			if _, ok := keys[r.Key()]; ok {
				return nil, fmt.Errorf("%w: key %q", ErrDuplicate, r.Key())
			}
			keys[r.Key()] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(regs))
	for _, r := range regs {
		id := m.nextID
		m.nextID++
		m.regulations = append(m.regulations, storedRegulation{id: id, reg: r})
		ids = append(ids, id)
	}
	return ids, nil
}

// LinkComponents stores one association per id.
func (m *Memory) LinkComponents(ctx context.Context, regulationIDs []int64, componentID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LinkErr != nil {
		return 0, m.LinkErr
	}
	for _, id := range regulationIDs {
		m.links = append(m.links, Link{RegulationID: id, ComponentID: componentID})
	}
	return int64(len(regulationIDs)), nil
}

// Count returns the number of stored regulations.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regulations)
}

// Links returns a copy of the stored association rows.
func (m *Memory) Links() []Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Link, len(m.links))
	copy(out, m.links)
	return out
}

// Calls reports how many read and insert round trips the store served.
func (m *Memory) Calls() (existing, inserts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existingCalls, m.insertCalls
}
