package detector

import (
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DocumentSource supplies the current document and signals structural
// changes to it.
type DocumentSource interface {
	// Document returns a snapshot of the current document.
	Document(ctx context.Context) (*goquery.Document, error)

	// Changes delivers a tick after each structural change. A nil channel
	// means the document never changes.
	Changes() <-chan struct{}
}

// StaticSource is a document that never changes.
type StaticSource struct {
	doc *goquery.Document
}

// NewStaticSource wraps doc.
func NewStaticSource(doc *goquery.Document) *StaticSource {
	return &StaticSource{doc: doc}
}

func (s *StaticSource) Document(ctx context.Context) (*goquery.Document, error) {
	return s.doc, nil
}

func (s *StaticSource) Changes() <-chan struct{} { return nil }

// MutableSource is an in-memory document that can be replaced. Each
// Update emits one change tick; ticks coalesce while unread.
type MutableSource struct {
	mu      sync.RWMutex
	doc     *goquery.Document
	changes chan struct{}
}

// NewMutableSource starts with doc.
func NewMutableSource(doc *goquery.Document) *MutableSource {
	return &MutableSource{doc: doc, changes: make(chan struct{}, 1)}
}

func (s *MutableSource) Document(ctx context.Context) (*goquery.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, nil
}

func (s *MutableSource) Changes() <-chan struct{} { return s.changes }

// Update swaps the document and signals a change.
func (s *MutableSource) Update(doc *goquery.Document) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	select {
	case s.changes <- struct{}{}:
	default:
	}
}
