package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v75/github"
	"github.com/marcolomele/makeup-portfolio/internal/config"
	"github.com/marcolomele/makeup-portfolio/internal/middleware"
	"github.com/marcolomele/makeup-portfolio/internal/rest"
	"github.com/marcolomele/makeup-portfolio/internal/view"
	"github.com/marcolomele/makeup-portfolio/portfolio/application"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/marcolomele/makeup-portfolio/portfolio/persistence"
	"github.com/marcolomele/makeup-portfolio/portfolio/resolver"
	"github.com/marcolomele/makeup-portfolio/shared/db/sqlite"
	gh "github.com/marcolomele/makeup-portfolio/shared/github"
	"github.com/marcolomele/makeup-portfolio/shared/remote"
	webhook "github.com/marcolomele/makeup-portfolio/webhook/http"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portfolio site and API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := sqlite.NewSQLiteDB(&cfg.SQLite)
	if err := database.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	source, err := newDocumentSource(cfg)
	if err != nil {
		return err
	}

	store := application.NewProjectStore(source, persistence.NewSnapshotRepository(database.DB()), cfg.CacheTTL)
	defer store.Close()

	prober := resolver.NewHTTPProber(nil, cfg.Resolver.UserAgent)
	defer prober.Close()

	res := resolver.New(prober, resolver.Config{
		Timeout:     cfg.Resolver.Timeout,
		Placeholder: cfg.Resolver.Placeholder,
		SizeHint:    cfg.Resolver.SizeHint,
	})

	gallery := application.NewGalleryService(
		store,
		res,
		persistence.NewResolutionRepository(database.DB()),
		application.NewDescriptionRenderer("/projects/"),
		application.ProbeLimit{PerSecond: cfg.Resolver.ProbeRate, Burst: cfg.Resolver.ProbeBurst},
	)
	defer func() {
		if err := gallery.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close gallery service")
		}
	}()

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(engine, store, gallery, renderer, cfg.RenderWait)

	r := chi.NewRouter()
	if cfg.WebhookSecret != "" {
		hook, err := webhook.NewWebhookHandler(cfg.WebhookSecret, watchedDocument(cfg), store)
		if err != nil {
			return err
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.LogRequests, middleware.RecoverPanics)
			hook.RegisterRoutes(r)
		})
	} else {
		log.Info().Msg("PORTFOLIO_WEBHOOK_SECRET not set, webhook disabled")
	}
	r.Mount("/", engine)

	if fileSource, ok := source.(*remote.FileSource); ok && cfg.Source.Watch {
		go func() {
			err := fileSource.Watch(ctx, func() {
				if err := store.Refresh(ctx); err != nil {
					log.Warn().Err(err).Msg("Reloaded portfolio with a substitute document")
				}
			})
			if err != nil {
				log.Error().Err(err).Msg("Document watcher stopped")
			}
		}()
	}

	if projects, err := store.ListProjects(ctx); err == nil {
		log.Info().Int("projects", len(projects)).Str("source", source.Describe()).Msg("Portfolio ready")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Info().Msg("Starting server on port :" + fmt.Sprint(cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func newDocumentSource(cfg *config.Config) (domain.DocumentSource, error) {
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		return remote.NewHTTPSource(cfg.Source.URL, nil), nil
	case config.SourceFile:
		return remote.NewFileSource(cfg.Source.Path), nil
	case config.SourceGitHub:
		client := github.NewClient(nil)
		if cfg.GitHub.Token != "" {
			client = client.WithAuthToken(cfg.GitHub.Token)
		}
		return gh.NewContentsSource(client, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Path, cfg.GitHub.Ref), nil
	}
	return nil, fmt.Errorf("unknown document source %q", cfg.Source.Kind)
}

func watchedDocument(cfg *config.Config) webhook.WatchedDocument {
	doc := webhook.WatchedDocument{
		Path:   cfg.GitHub.Path,
		Branch: cfg.GitHub.Ref,
	}
	if cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "" {
		doc.RepoFullName = cfg.GitHub.Owner + "/" + cfg.GitHub.Repo
	}
	return doc
}
