// Package service orchestrates the ingestion pipeline and the retrieval
// engine over a shared embedder and vector store.
package service

import (
	"errors"

	"github.com/viant/afs"

	"github.com/studykit/corpus/chunker"
	"github.com/studykit/corpus/embeddings"
	"github.com/studykit/corpus/loader"
	"github.com/studykit/corpus/vectordb"
)

// ErrInvalidOwner indicates a request without an owner scope. Requests
// refuse to run unscoped rather than fall back to searching everything.
var ErrInvalidOwner = errors.New("owner_id is required")

const (
	defaultK        = 3
	maxK            = 10
	embedBatchSize  = 64
	neighborDamping = 0.8
)

// Service is the library facade. The embedder and store are injected at
// construction and shared by all ingestion and query calls.
type Service struct {
	fs       afs.Service
	loader   *loader.Loader
	chunker  *chunker.Semantic
	embedder embeddings.Embedder
	store    vectordb.VectorStore
	logf     func(format string, args ...any)
}

// Option configures a Service.
type Option func(*Service)

// WithLoader overrides the document loader, e.g. to attach an OCR engine.
func WithLoader(l *loader.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithChunker overrides the semantic chunker.
func WithChunker(c *chunker.Semantic) Option {
	return func(s *Service) {
		if c != nil {
			s.chunker = c
		}
	}
}

// WithLogf sets the log sink; nil keeps logging disabled.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// New creates a Service around the given embedder and vector store.
func New(embedder embeddings.Embedder, store vectordb.VectorStore, opts ...Option) *Service {
	s := &Service{
		fs:       afs.New(),
		embedder: embedder,
		store:    store,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = loader.New(loader.WithLogf(s.logf))
	}
	if s.chunker == nil {
		s.chunker = chunker.NewSemantic(embedder)
	}
	return s
}

func (s *Service) logPrintf(format string, args ...any) {
	if s.logf != nil {
		s.logf(format, args...)
	}
}
