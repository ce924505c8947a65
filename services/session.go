package services

import "sync"

// Session holds the vector store of the most recently ingested document.
// It starts empty; each successful ingestion replaces the store wholesale.
type Session struct {
	mu       sync.RWMutex
	store    VectorStore
	document string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Store returns the active store and the name of the document it indexes.
// The store is nil until a document has been ingested.
func (s *Session) Store() (VectorStore, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store, s.document
}

// Replace swaps in the store built for document.
func (s *Session) Replace(store VectorStore, document string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.document = document
}
