// Package vocabulary keeps the known brand, branch and buyer lists the entity
// extractor matches against, and refreshes them from a backing source.
package vocabulary

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"intent-engine/internal/engine/entities"
)

// Snapshot is one immutable load of the three lists.
type Snapshot struct {
	Brands   []string
	Branches []string
	Buyers   []string
	Source   string
	LoadedAt time.Time
}

// Loader fetches a fresh snapshot.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Store publishes the current snapshot. Readers never block; a refresh swaps the
// pointer.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	if initial == nil {
		initial = &Snapshot{Source: "empty"}
	}
	s.current.Store(initial)
	return s
}

func (s *Store) Current() *Snapshot { return s.current.Load() }

func (s *Store) Set(snap *Snapshot) {
	if snap != nil {
		s.current.Store(snap)
	}
}

// Vocabulary returns the current lists in the form the extractor takes.
func (s *Store) Vocabulary() entities.Vocabulary {
	snap := s.current.Load()
	return entities.Vocabulary{
		Brands:   snap.Brands,
		Branches: snap.Branches,
		Buyers:   snap.Buyers,
	}
}

// clean trims, drops blanks and case-insensitive duplicates, sorts, and caps the
// list at limit entries when limit > 0.
func clean(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
