package resolver

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// a GIF header that declares a 0x0 logical screen
var zeroSizeGIF = []byte{'G', 'I', 'F', '8', '9', 'a', 0, 0, 0, 0, 0, 0, 0}

func TestHTTPProber_Probe(t *testing.T) {
	photo := pngBytes(t, 4, 3)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(photo)
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		// Drive answers some export links with an HTML interstitial and a 200
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
	})
	mux.HandleFunc("/empty.gif", func(w http.ResponseWriter, r *http.Request) {
		w.Write(zeroSizeGIF)
	})
	mux.HandleFunc("/truncated.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(photo[:12])
	})
	mux.HandleFunc("/vector.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	prober := NewHTTPProber(srv.Client(), "portfolio-test")
	defer prober.Close()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "Valid PNG", path: "/ok.png", wantErr: false},
		{name: "Not found", path: "/missing.png", wantErr: true},
		{name: "HTML instead of image", path: "/login", wantErr: true},
		{name: "Zero dimensions", path: "/empty.gif", wantErr: true},
		{name: "Truncated header", path: "/truncated.png", wantErr: true},
		{name: "Undecodable image type", path: "/vector.svg", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := prober.Probe(context.Background(), domain.ImageReference(srv.URL+tt.path))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNetworkOrDecode)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPProber_InvalidReference(t *testing.T) {
	prober := NewHTTPProber(nil, "")
	defer prober.Close()

	err := prober.Probe(context.Background(), "::not a url")
	assert.ErrorIs(t, err, ErrNetworkOrDecode)
}

func TestHTTPProber_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	prober := NewHTTPProber(srv.Client(), "")
	defer prober.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := prober.Probe(ctx, domain.ImageReference(srv.URL))
	assert.ErrorIs(t, err, ErrNetworkOrDecode)
	assert.ErrorIs(t, err, context.Canceled)
}
