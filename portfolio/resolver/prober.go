package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
)

// Prober performs one load of a candidate reference. A nil error means the image
// is displayable with non-zero dimensions.
type Prober interface {
	Probe(ctx context.Context, ref domain.ImageReference) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, ref domain.ImageReference) error

func (f ProberFunc) Probe(ctx context.Context, ref domain.ImageReference) error {
	return f(ctx, ref)
}

const (
	sniffLen = 3072
	// image headers never need more than this to report dimensions
	maxHeaderBytes = 1 << 20
)

// HTTPProber loads references over HTTP.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber wraps client. A nil client gets a pooled transport and no overall timeout;
// the resolver's own timer bounds each attempt.
func NewHTTPProber(client *http.Client, userAgent string) *HTTPProber {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPProber{client: client, userAgent: userAgent}
}

func (p *HTTPProber) Probe(ctx context.Context, ref domain.ImageReference) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, string(ref), nil)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %w", ErrNetworkOrDecode, err)
	}
	req.Header.Set("Accept", "image/*")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkOrDecode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d", ErrNetworkOrDecode, resp.StatusCode)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: failed to read body: %w", ErrNetworkOrDecode, err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return fmt.Errorf("%w: payload is %s", ErrNetworkOrDecode, mtype.String())
	}

	cfg, _, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), io.LimitReader(resp.Body, maxHeaderBytes)))
	if errors.Is(err, image.ErrFormat) {
		// An image type without a registered decoder (webp, svg, avif). The sniffed type is all we get.
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to decode header: %w", ErrNetworkOrDecode, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("%w: image has zero dimensions", ErrNetworkOrDecode)
	}
	return nil
}

// Close releases idle connections.
func (p *HTTPProber) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
