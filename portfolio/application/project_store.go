package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var ErrProjectNotFound = errors.New("project not found")

const (
	documentCacheKey = "document"
	// DefaultDocumentTTL is how long a fetched document is served before the source is asked again.
	DefaultDocumentTTL = 5 * time.Minute
	// substitute documents are cached briefly so a recovered source is picked up soon
	fallbackTTL = 30 * time.Second
)

// documentOrigin records where the cached document came from.
type documentOrigin string

const (
	originSource   documentOrigin = "source"
	originSnapshot documentOrigin = "snapshot"
	originSample   documentOrigin = "sample"
)

type cachedDocument struct {
	doc    *domain.Document
	origin documentOrigin
	// why the source was not used, when origin is not originSource
	sourceErr error
}

// ProjectStore serves the ordered project list. It never fails because the source is
// unavailable: it falls back to the last good snapshot and then to the built-in sample.
type ProjectStore struct {
	source    domain.DocumentSource
	snapshots domain.SnapshotRepository

	cache *cache.Cache
	group singleflight.Group
	now   func() time.Time
}

// NewProjectStore creates a store. snapshots may be nil, in which case the sample is the only fallback.
func NewProjectStore(source domain.DocumentSource, snapshots domain.SnapshotRepository, ttl time.Duration) *ProjectStore {
	if ttl <= 0 {
		ttl = DefaultDocumentTTL
	}
	return &ProjectStore{
		source:    source,
		snapshots: snapshots,
		cache:     cache.New(ttl, 2*ttl),
		now:       time.Now,
	}
}

func (s *ProjectStore) Close() error {
	s.cache.Flush()
	return nil
}

// ListProjects returns every project in document order.
func (s *ProjectStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	cached, err := s.document(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(cached.doc.Projects), nil
}

func (s *ProjectStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	cached, err := s.document(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range cached.doc.Projects {
		if p.ID == id {
			project := p
			return &project, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

// FilterByCategory returns the projects in category, ignoring case. "" and "all" return everything.
func (s *ProjectStore) FilterByCategory(ctx context.Context, category string) ([]domain.Project, error) {
	cached, err := s.document(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []domain.Project
	for _, p := range cached.doc.Projects {
		if p.InCategory(category) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Categories returns the distinct categories in order of first appearance.
func (s *ProjectStore) Categories(ctx context.Context) ([]string, error) {
	cached, err := s.document(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var categories []string
	for _, p := range cached.doc.Projects {
		if p.Category == "" {
			continue
		}
		key := strings.ToLower(p.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories, nil
}

// Refresh drops the cached document and loads it again. The returned error describes
// a source failure; the store keeps serving a substitute document either way.
func (s *ProjectStore) Refresh(ctx context.Context) error {
	s.cache.Delete(documentCacheKey)
	s.group.Forget(documentCacheKey)

	cached, err := s.document(ctx)
	if err != nil {
		return err
	}
	return cached.sourceErr
}

// document returns the cached document, loading it when needed. Concurrent loads are coalesced.
func (s *ProjectStore) document(ctx context.Context) (*cachedDocument, error) {
	if v, ok := s.cache.Get(documentCacheKey); ok {
		return v.(*cachedDocument), nil
	}

	// A caller going away must not fail the load for everyone waiting on it.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(documentCacheKey, func() (interface{}, error) {
		cached := s.load(loadCtx)
		ttl := cache.DefaultExpiration
		if cached.origin != originSource {
			ttl = fallbackTTL
		}
		s.cache.Set(documentCacheKey, cached, ttl)
		return cached, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val.(*cachedDocument), nil
	}
}

// load tries the source, then the last snapshot, then the sample. It always returns a document.
func (s *ProjectStore) load(ctx context.Context) *cachedDocument {
	doc, sourceErr := s.fetchFromSource(ctx)
	if sourceErr == nil {
		log.Info().Str("source", s.source.Describe()).Int("projects", len(doc.Projects)).Msg("Loaded portfolio document")
		return &cachedDocument{doc: doc, origin: originSource}
	}

	log.Warn().Err(sourceErr).Str("source", s.source.Describe()).Msg("Failed to load portfolio document, falling back")

	if doc := s.loadSnapshot(ctx); doc != nil {
		return &cachedDocument{doc: doc, origin: originSnapshot, sourceErr: sourceErr}
	}

	log.Warn().Msg("Serving built-in sample portfolio")
	return &cachedDocument{doc: SampleDocument(), origin: originSample, sourceErr: sourceErr}
}

func (s *ProjectStore) fetchFromSource(ctx context.Context) (*domain.Document, error) {
	raw, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}

	doc, err := DecodeDocument(raw)
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		err := s.snapshots.SaveSnapshot(ctx, &domain.Snapshot{
			Source:    s.source.Describe(),
			Content:   raw,
			FetchedAt: s.now().UTC(),
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to save document snapshot")
		}
	}

	return doc, nil
}

func (s *ProjectStore) loadSnapshot(ctx context.Context) *domain.Document {
	if s.snapshots == nil {
		return nil
	}

	snapshot, err := s.snapshots.LatestSnapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read document snapshot")
		return nil
	}
	if snapshot == nil {
		return nil
	}

	doc, err := DecodeDocument(snapshot.Content)
	if err != nil {
		log.Error().Err(err).Msg("Stored document snapshot is unreadable")
		return nil
	}

	log.Info().Str("source", snapshot.Source).Time("fetchedAt", snapshot.FetchedAt).Msg("Serving portfolio from snapshot")
	return doc
}
