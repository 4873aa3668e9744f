package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
)

var _ domain.DocumentSource = (*HTTPSource)(nil)

// documents larger than this are rejected
const maxDocumentSize = 8 << 20

// HTTPSource fetches the portfolio document from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for url. A nil client gets a 15 second timeout.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSource{
		url:    url,
		client: client,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", s.url, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.url, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("document at %s exceeds %d bytes", s.url, maxDocumentSize)
	}

	return body, nil
}

func (s *HTTPSource) Describe() string {
	return s.url
}
