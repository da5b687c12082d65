package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hetulpatel/lotbidder/internal/logging"
	"github.com/hetulpatel/lotbidder/internal/storage"
)

// Set is an unordered set of processed lot ids.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id string) {
	s[id] = struct{}{}
}

func (s Set) Remove(id string) {
	delete(s, id)
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the ids in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Ledger loads and saves the processed-id set.
type Ledger struct {
	blobs storage.BlobStore
	key   string
	log   logging.Logger
}

func New(blobs storage.BlobStore, log logging.Logger) *Ledger {
	if log == nil {
		log = logging.Nop()
	}
	return &Ledger{blobs: blobs, key: storage.KeyProcessedIDs, log: log}
}

// Load returns the persisted set. A missing or corrupt blob yields an empty
// set; only storage failures are returned.
func (l *Ledger) Load(ctx context.Context) (Set, error) {
	blob, ok, err := l.blobs.Load(ctx, l.key)
	if err != nil {
		return nil, fmt.Errorf("load processed ids: %w", err)
	}
	if !ok {
		l.log.Infof("[ledger] no processed ids stored yet, starting empty")
		return NewSet(), nil
	}
	var ids []string
	if err := json.Unmarshal(blob, &ids); err != nil {
		l.log.Warnf("[ledger] processed ids blob is corrupt, starting empty: %v", err)
		return NewSet(), nil
	}
	set := NewSet(ids...)
	l.log.Infof("[ledger] loaded %d processed ids", set.Len())
	return set, nil
}

// Save overwrites the persisted set.
func (l *Ledger) Save(ctx context.Context, set Set) error {
	data, err := json.MarshalIndent(set.Sorted(), "", "    ")
	if err != nil {
		return fmt.Errorf("marshal processed ids: %w", err)
	}
	if err := l.blobs.Save(ctx, l.key, data); err != nil {
		return fmt.Errorf("save processed ids: %w", err)
	}
	l.log.Infof("[ledger] saved %d processed ids", set.Len())
	return nil
}
