package application

import (
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/marcolomele/makeup-portfolio/portfolio/resolver"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ProjectCatalog is the read side of the project store.
type ProjectCatalog interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	FilterByCategory(ctx context.Context, category string) ([]domain.Project, error)
}

var _ ProjectCatalog = (*ProjectStore)(nil)

// Gallery is a project with every image bound to a resolving element.
type Gallery struct {
	Project     domain.Project
	Description template.HTML
	Images      []*resolver.Handle
}

// GridItem is one cell of the project grid.
type GridItem struct {
	Project   domain.Project
	Thumbnail *resolver.Handle
}

// settleGrace is added to the two-timeout worst case before a batch's handles are abandoned.
const settleGrace = time.Second

// ProbeLimit bounds how fast new images start loading.
type ProbeLimit struct {
	PerSecond float64
	Burst     int
}

type GalleryService struct {
	catalog     ProjectCatalog
	resolver    *resolver.Resolver
	resolutions domain.ResolutionRepository
	description DescriptionRenderer
	limiter     *rate.Limiter

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewGalleryService creates the service. resolutions may be nil to skip recording outcomes.
func NewGalleryService(catalog ProjectCatalog, res *resolver.Resolver, resolutions domain.ResolutionRepository, description DescriptionRenderer, limit ProbeLimit) *GalleryService {
	ctx, cancel := context.WithCancel(context.Background())

	limiter := rate.NewLimiter(rate.Inf, 0)
	if limit.PerSecond > 0 {
		burst := limit.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(limit.PerSecond), burst)
	}

	return &GalleryService{
		catalog:     catalog,
		resolver:    res,
		resolutions: resolutions,
		description: description,
		limiter:     limiter,
		ctx:         ctx,
		cancel:      cancel,
		wg:          &sync.WaitGroup{},
	}
}

// Close stops recording outcomes and waits for the recording workers to exit.
func (s *GalleryService) Close() error {
	s.cancel()
	s.wg.Wait()

	return nil
}

// ResolveProject binds every image of the project to a handle. ctx bounds the lookup only:
// the handles belong to the service and keep resolving after the caller returns, until they
// settle, Close is called or twice the resolver timeout has passed.
func (s *GalleryService) ResolveProject(ctx context.Context, id string) (*Gallery, error) {
	project, err := s.catalog.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	description, err := s.description.Render(project.Description)
	if err != nil {
		log.Error().Err(err).Str("project", project.ID).Msg("Failed to render description")
		description = template.HTML(template.HTMLEscapeString(project.Description))
	}

	refs := make([]imageRequest, len(project.Images))
	for i, ref := range project.Images {
		refs[i] = imageRequest{
			projectID: project.ID,
			ref:       ref,
			alt:       fmt.Sprintf("%s - Image %d", project.Title, i+1),
		}
	}

	handles, err := s.resolveAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve images for project %s: %w", project.ID, err)
	}

	return &Gallery{
		Project:     *project,
		Description: description,
		Images:      handles,
	}, nil
}

// ResolveGrid binds the thumbnail of every project in category.
func (s *GalleryService) ResolveGrid(ctx context.Context, category string) ([]GridItem, error) {
	projects, err := s.catalog.FilterByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	refs := make([]imageRequest, len(projects))
	for i, p := range projects {
		refs[i] = imageRequest{
			projectID: p.ID,
			ref:       p.ThumbnailRef(),
			alt:       p.Title,
		}
	}

	handles, err := s.resolveAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve grid thumbnails: %w", err)
	}

	items := make([]GridItem, len(projects))
	for i, p := range projects {
		items[i] = GridItem{Project: p, Thumbnail: handles[i]}
	}
	return items, nil
}

// WaitAll blocks until every handle settles or ctx is done.
func WaitAll(ctx context.Context, handles []*resolver.Handle) error {
	for _, h := range handles {
		if _, err := h.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

type imageRequest struct {
	projectID string
	ref       domain.ImageReference
	alt       string
}

func (s *GalleryService) resolveAll(ctx context.Context, reqs []imageRequest) ([]*resolver.Handle, error) {
	handles := make([]*resolver.Handle, len(reqs))

	// A silent image needs two timeouts to reach the placeholder, which is usually longer
	// than the request that asked for it.
	owner, release := context.WithTimeout(s.ctx, 2*s.resolver.Config().Timeout+settleGrace)

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			h := s.resolver.Resolve(owner, req.ref, req.alt)
			handles[i] = h
			s.track(req.projectID, h)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		release()
		return nil, err
	}

	s.wg.Go(func() {
		defer release()
		for _, h := range handles {
			<-h.Done()
		}
	})
	return handles, nil
}

// track records the terminal result of h once it settles.
func (s *GalleryService) track(projectID string, h *resolver.Handle) {
	if s.resolutions == nil {
		return
	}

	s.wg.Go(func() {
		select {
		case <-s.ctx.Done():
			return
		case <-h.Done():
		}

		res := h.Result()
		if res.Detached {
			return
		}

		record := &domain.Resolution{
			ElementID:  res.ElementID,
			ProjectID:  projectID,
			Original:   res.Original,
			Final:      res.Source,
			Status:     string(res.Status),
			Outcome:    string(res.Outcome),
			Rewrites:   res.Rewrites,
			ResolvedAt: time.Now().UTC(),
		}
		if res.LastErr != nil {
			record.LastError = res.LastErr.Error()
		}

		if err := s.resolutions.RecordResolution(s.ctx, record); err != nil {
			log.Error().Err(err).Str("element", res.ElementID).Msg("Failed to record image resolution")
		}
	})
}

// RecentResolutions returns the latest recorded outcomes, newest first.
func (s *GalleryService) RecentResolutions(ctx context.Context, limit int, fallbacksOnly bool) ([]*domain.Resolution, error) {
	if s.resolutions == nil {
		return nil, nil
	}
	if fallbacksOnly {
		return s.resolutions.ListFallbacks(ctx, limit)
	}
	return s.resolutions.ListRecentResolutions(ctx, limit)
}
