package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
)

const testSecret = "s3cret"

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func pushPayload(ref string, modified string) []byte {
	return []byte(`{
		"ref": "` + ref + `",
		"after": "abc123",
		"repository": {"full_name": "owner/site", "default_branch": "main"},
		"commits": [{"id": "abc123", "added": [], "removed": [], "modified": ["` + modified + `"]}]
	}`)
}

func newTestRouter(t *testing.T, store Refresher, branch string) chi.Router {
	t.Helper()
	h, err := NewWebhookHandler(testSecret, WatchedDocument{RepoFullName: "owner/site", Path: "data/portfolio.json", Branch: branch}, store)
	if err != nil {
		t.Fatalf("NewWebhookHandler failed: %v", err)
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHandleGitWebhook(t *testing.T) {
	tests := []struct {
		name        string
		event       string
		body        []byte
		signature   string
		branch      string
		refreshErr  error
		wantStatus  int
		wantRefresh int32
	}{
		{
			name:        "Push touching the document",
			event:       "push",
			body:        pushPayload("refs/heads/main", "data/portfolio.json"),
			wantStatus:  http.StatusNoContent,
			wantRefresh: 1,
		},
		{
			name:        "Push touching other files",
			event:       "push",
			body:        pushPayload("refs/heads/main", "README.md"),
			wantStatus:  http.StatusNoContent,
			wantRefresh: 0,
		},
		{
			name:        "Push to another branch",
			event:       "push",
			body:        pushPayload("refs/heads/feature", "data/portfolio.json"),
			wantStatus:  http.StatusNoContent,
			wantRefresh: 0,
		},
		{
			name:        "Push to the configured branch",
			event:       "push",
			body:        pushPayload("refs/heads/gh-pages", "data/portfolio.json"),
			branch:      "gh-pages",
			wantStatus:  http.StatusNoContent,
			wantRefresh: 1,
		},
		{
			name:        "Refresh fails",
			event:       "push",
			body:        pushPayload("refs/heads/main", "data/portfolio.json"),
			refreshErr:  errors.New("unexpected status 502"),
			wantStatus:  http.StatusBadGateway,
			wantRefresh: 1,
		},
		{
			name:        "Ping",
			event:       "ping",
			body:        []byte(`{"zen": "Keep it simple.", "hook_id": 7}`),
			wantStatus:  http.StatusNoContent,
			wantRefresh: 0,
		},
		{
			name:        "Bad signature",
			event:       "push",
			body:        pushPayload("refs/heads/main", "data/portfolio.json"),
			signature:   "sha256=deadbeef",
			wantStatus:  http.StatusBadRequest,
			wantRefresh: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &countingRefresher{err: tt.refreshErr}
			router := newTestRouter(t, store, tt.branch)

			req := httptest.NewRequest(http.MethodPost, "/webhook/git", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-GitHub-Event", tt.event)
			sig := tt.signature
			if sig == "" {
				sig = sign(tt.body)
			}
			req.Header.Set("X-Hub-Signature-256", sig)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := store.calls.Load(); got != tt.wantRefresh {
				t.Errorf("Refresh called %d times, want %d", got, tt.wantRefresh)
			}
		})
	}
}

func TestNewWebhookHandler_RequiresSecret(t *testing.T) {
	if _, err := NewWebhookHandler("", WatchedDocument{}, &countingRefresher{}); err == nil {
		t.Error("expected an error without a secret")
	}
}
