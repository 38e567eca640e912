// Package session tracks the documents a client has open and applies the
// open/change/close notifications of the document synchronization protocol.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tliron/commonlog"
	"go.uber.org/atomic"

	"github.com/dhamidi/grammarls/document"
)

var log = commonlog.GetLogger("grammarls.session")

// ErrNotFound is returned for a URI that is not tracked.
var ErrNotFound = errors.New("document not found")

// Handle refers to a tracked document by URI. Viewers keep handles rather
// than the documents themselves; a handle outlives the document it names,
// and lookups through it fail once the document is evicted.
type Handle struct {
	URI string
}

type tracked struct {
	doc   *document.Document
	opens int

	// serializes changes to doc; the map lock is not held while a batch
	// is applied
	edit sync.Mutex
}

// Stats are counters maintained by a Tracker.
type Stats struct {
	Opens   atomic.Int64
	Changes atomic.Int64
	Rejects atomic.Int64
	Closes  atomic.Int64
}

func (s *Stats) String() string {
	return fmt.Sprintf("opens=%d changes=%d rejects=%d closes=%d",
		s.Opens.Load(), s.Changes.Load(), s.Rejects.Load(), s.Closes.Load())
}

// Tracker maps URIs to open documents. It is safe for concurrent use.
// Changes to one URI are applied one batch at a time; different URIs are
// independent.
type Tracker struct {
	mu    sync.RWMutex
	docs  map[string]*tracked
	stats Stats
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{docs: make(map[string]*tracked)}
}

// DidOpen starts tracking uri, or adds a viewer when it is already tracked.
// An already tracked document keeps its content.
func (t *Tracker) DidOpen(uri, languageID string, version int32, content string) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Opens.Inc()

	if td, ok := t.docs[uri]; ok {
		td.opens++
		if td.doc.Content().String() != content {
			log.Warningf("%s: opened again with different content, keeping version %d", uri, td.doc.Version())
		}
		log.Debugf("%s: open count %d", uri, td.opens)
		return Handle{URI: uri}
	}

	t.docs[uri] = &tracked{
		doc:   document.New(uri, languageID, version, content),
		opens: 1,
	}
	log.Infof("%s: opened (%s, version %d)", uri, languageID, version)
	return Handle{URI: uri}
}

// DidChange applies changes to the document at uri in order. A failing
// change leaves the document as it was before the call.
func (t *Tracker) DidChange(uri string, version int32, changes []document.Change) (*document.Document, error) {
	td, err := t.lookup(uri)
	if err != nil {
		return nil, err
	}
	return t.apply(uri, td, version, changes)
}

// apply changes td, which was looked up for uri without holding its edit
// lock. A close or reopen in between leaves td orphaned.
func (t *Tracker) apply(uri string, td *tracked, version int32, changes []document.Change) (*document.Document, error) {
	td.edit.Lock()
	defer td.edit.Unlock()
	if !t.current(uri, td) {
		return nil, fmt.Errorf("%s: closed during change: %w", uri, ErrNotFound)
	}
	if err := td.doc.ApplyChanges(version, changes); err != nil {
		t.stats.Rejects.Inc()
		log.Errorf("%s: rejected %d change(s) for version %d: %s", uri, len(changes), version, err.Error())
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	t.stats.Changes.Inc()
	return td.doc, nil
}

// DidClose removes one viewer of uri and evicts the document once no
// viewer is left. It reports whether the document was evicted.
func (t *Tracker) DidClose(uri string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	td, ok := t.docs[uri]
	if !ok {
		return false, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	t.stats.Closes.Inc()
	td.opens--
	if td.opens > 0 {
		log.Debugf("%s: open count %d", uri, td.opens)
		return false, nil
	}
	delete(t.docs, uri)
	log.Infof("%s: closed", uri)
	return true, nil
}

// Document returns the document tracked for uri.
func (t *Tracker) Document(uri string) (*document.Document, error) {
	td, err := t.lookup(uri)
	if err != nil {
		return nil, err
	}
	return td.doc, nil
}

// Resolve returns the document h refers to.
func (t *Tracker) Resolve(h Handle) (*document.Document, error) {
	return t.Document(h.URI)
}

// OpenCount returns the number of viewers of uri, 0 when it is not tracked.
func (t *Tracker) OpenCount(uri string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if td, ok := t.docs[uri]; ok {
		return td.opens
	}
	return 0
}

// URIs returns the tracked URIs in sorted order.
func (t *Tracker) URIs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	uris := make([]string, 0, len(t.docs))
	for uri := range t.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// CloseAll evicts every document regardless of its open count.
func (t *Tracker) CloseAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.docs)
	t.docs = make(map[string]*tracked)
	if n > 0 {
		log.Infof("closed %d document(s)", n)
	}
	return n
}

// Stats returns the tracker's counters.
func (t *Tracker) Stats() *Stats {
	return &t.stats
}

// current reports whether td is still the entry tracked for uri.
func (t *Tracker) current(uri string, td *tracked) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.docs[uri] == td
}

func (t *Tracker) lookup(uri string) (*tracked, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	td, ok := t.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	return td, nil
}
