package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/hetulpatel/lotbidder/internal/logging"
	"github.com/hetulpatel/lotbidder/internal/storage"
)

// ErrNoCookies is returned when an acquirer produced an empty cookie set.
var ErrNoCookies = errors.New("session: no cookies acquired")

// CookieSet maps cookie names to values.
type CookieSet map[string]string

// HTTPCookies returns the set as request cookies, sorted by name.
func (s CookieSet) HTTPCookies() []*http.Cookie {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		out = append(out, &http.Cookie{Name: name, Value: s[name]})
	}
	return out
}

// Acquirer obtains a fresh authenticated session, e.g. via an interactive login.
type Acquirer interface {
	Acquire(ctx context.Context) (CookieSet, error)
}

// AcquirerFunc adapts a function to Acquirer.
type AcquirerFunc func(ctx context.Context) (CookieSet, error)

func (f AcquirerFunc) Acquire(ctx context.Context) (CookieSet, error) {
	return f(ctx)
}

// Store serves the persisted cookie blob and falls back to the acquirer
// only when no blob exists.
type Store struct {
	blobs    storage.BlobStore
	acquirer Acquirer
	log      logging.Logger

	mu     sync.Mutex
	cached CookieSet
}

func NewStore(blobs storage.BlobStore, acquirer Acquirer, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{blobs: blobs, acquirer: acquirer, log: log}
}

func (s *Store) Cookies(ctx context.Context) (CookieSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	blob, ok, err := s.blobs.Load(ctx, storage.KeyCookies)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	if ok {
		var jar CookieSet
		if err := json.Unmarshal(blob, &jar); err == nil && len(jar) > 0 {
			s.log.Infof("[session] loaded %d cookies from store", len(jar))
			s.cached = jar
			return jar, nil
		}
		s.log.Warnf("[session] stored cookies unreadable, acquiring a new session")
	}

	if s.acquirer == nil {
		return nil, fmt.Errorf("no stored session and no acquirer configured")
	}
	jar, err := s.acquirer.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	if len(jar) == 0 {
		return nil, ErrNoCookies
	}

	data, err := json.MarshalIndent(jar, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal cookies: %w", err)
	}
	if err := s.blobs.Save(ctx, storage.KeyCookies, data); err != nil {
		s.log.Errorf("[session] persist cookies: %v", err)
	} else {
		s.log.Infof("[session] acquired and saved %d cookies", len(jar))
	}
	s.cached = jar
	return jar, nil
}

// Invalidate forgets the current session so the next Cookies call acquires a new one.
func (s *Store) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.log.Warnf("[session] session rejected, dropping stored cookies")
	return s.blobs.Delete(ctx, storage.KeyCookies)
}
