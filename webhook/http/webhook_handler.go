package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

// Refresher reloads the portfolio document.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// WatchedDocument identifies the document a push has to touch to trigger a reload.
type WatchedDocument struct {
	// RepoFullName is "owner/repo".
	RepoFullName string
	Path         string
	// Branch is the branch the document is read from. Empty means the repository's default branch.
	Branch string
}

type WebhookHandler struct {
	webhookSecret []byte
	document      WatchedDocument
	store         Refresher
}

func NewWebhookHandler(secret string, document WatchedDocument, store Refresher) (*WebhookHandler, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is not set")
	}

	return &WebhookHandler{
		webhookSecret: []byte(secret),
		document:      document,
		store:         store,
	}, nil
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/git", h.HandleGitWebhook)
}

func (h *WebhookHandler) HandleGitWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, h.webhookSecret)
	if err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		http.Error(w, "Invalid event", http.StatusBadRequest)
		return
	}

	switch evt := event.(type) {
	case *github.PushEvent:
		if !h.touchesDocument(evt) {
			break
		}
		log.Info().Str("after", evt.GetAfter()).Str("path", h.document.Path).Msg("Portfolio document pushed, refreshing")
		if err := h.store.Refresh(r.Context()); err != nil {
			log.Error().Err(err).Msg("Failed to refresh portfolio after push")
			http.Error(w, "Error refreshing portfolio", http.StatusBadGateway)
			return
		}
	case *github.PingEvent:
		log.Info().Int64("hookId", evt.GetHookID()).Msg("Webhook ping received")
	}

	w.WriteHeader(http.StatusNoContent)
}

// touchesDocument reports whether the push landed on the watched branch of the watched
// repository and added, modified or removed the document.
func (h *WebhookHandler) touchesDocument(evt *github.PushEvent) bool {
	if h.document.RepoFullName != "" && !strings.EqualFold(evt.GetRepo().GetFullName(), h.document.RepoFullName) {
		return false
	}

	branch := h.document.Branch
	if branch == "" {
		branch = evt.GetRepo().GetDefaultBranch()
	}
	if evt.GetRef() != "refs/heads/"+branch {
		return false
	}

	for _, commit := range evt.Commits {
		for _, files := range [][]string{commit.Added, commit.Modified, commit.Removed} {
			for _, f := range files {
				if f == h.document.Path {
					return true
				}
			}
		}
	}
	return false
}
